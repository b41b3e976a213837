package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

const fieldSep = "|"

// FileSource reads pipe-delimited UTF-8 lines from a billy filesystem.
type FileSource struct {
	FS   billy.Filesystem
	Path string

	name string
}

func NewFileSource(fs billy.Filesystem, path string) *FileSource {
	return &FileSource{FS: fs, Path: path, name: path}
}

// NewOSFileSource reads path from the host filesystem. The filesystem is
// rooted at the file's directory so relative and absolute paths both work.
func NewOSFileSource(path string) *FileSource {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &FileSource{
		FS:   osfs.New(filepath.Dir(abs)),
		Path: filepath.Base(abs),
		name: path,
	}
}

// Name implements Source.
func (s *FileSource) Name() string {
	return s.name
}

// Each implements Source.
func (s *FileSource) Each(fn func(rec Record) error) error {
	f, err := s.FS.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, s.name)
		}
		return fmt.Errorf("%w: open %s: %v", ErrRead, s.name, err)
	}
	defer func() { _ = f.Close() }() // read-only

	// Lines have no length cap; a long line is parsed like any other.
	r := bufio.NewReader(f)
	pos := 0
	for {
		raw, rerr := r.ReadString('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return fmt.Errorf("%w: %s line %d: %v", ErrRead, s.name, pos+1, rerr)
		}
		if raw == "" && rerr != nil {
			return nil
		}
		pos++
		if line := strings.TrimSpace(raw); line != "" {
			if err := fn(Record{Pos: pos, Fields: strings.Split(line, fieldSep)}); err != nil {
				return err
			}
		}
		if rerr != nil {
			return nil
		}
	}
}
