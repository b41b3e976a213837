package ingest

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Table layouts read by SQLiteSource. Column order matches the line formats.
var sqliteTables = map[Kind]struct {
	table   string
	columns [3]string
}{
	Movies:  {table: "movies", columns: [3]string{"genre", "id", "name"}},
	Ratings: {table: "ratings", columns: [3]string{"movie", "rating", "user_id"}},
}

// SQLiteSource streams rows of a movies or ratings table one at a time.
// Each row becomes a three-field record; NULL columns become empty fields.
type SQLiteSource struct {
	Path string
	Kind Kind
}

func NewSQLiteSource(path string, kind Kind) *SQLiteSource {
	return &SQLiteSource{Path: path, Kind: kind}
}

// Name implements Source.
func (s *SQLiteSource) Name() string {
	return s.Path + "#" + sqliteTables[s.Kind].table
}

// Each implements Source.
func (s *SQLiteSource) Each(fn func(rec Record) error) error {
	layout, ok := sqliteTables[s.Kind]
	if !ok {
		return fmt.Errorf("%w: no table layout for %s", ErrRead, s.Kind)
	}

	// sql.Open would create a missing database file.
	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, s.Path)
		}
		return fmt.Errorf("%w: stat %s: %v", ErrRead, s.Path, err)
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("%w: open sqlite %s: %v", ErrRead, s.Path, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	query := fmt.Sprintf(`SELECT "%s", "%s", "%s" FROM "%s"`,
		layout.columns[0], layout.columns[1], layout.columns[2], layout.table)
	rows, err := db.Query(query)
	if err != nil {
		return fmt.Errorf("%w: query %s: %v", ErrRead, s.Name(), err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	pos := 0
	for rows.Next() {
		pos++
		var cols [3]sql.NullString
		if err := rows.Scan(&cols[0], &cols[1], &cols[2]); err != nil {
			return fmt.Errorf("%w: scan %s row %d: %v", ErrRead, s.Name(), pos, err)
		}
		fields := make([]string, len(cols))
		for i, c := range cols {
			fields[i] = c.String
		}
		if err := fn(Record{Pos: pos, Fields: fields}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate %s: %v", ErrRead, s.Name(), err)
	}
	return nil
}

// OpenPath picks a source for path by extension: SQLite databases for
// .db/.sqlite/.sqlite3, pipe-delimited text otherwise.
func OpenPath(path string, kind Kind) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteSource(path, kind)
	default:
		return NewOSFileSource(path)
	}
}
