package ingest

import "errors"

var (
	// ErrNotFound means the source path does not exist.
	ErrNotFound = errors.New("source not found")
	// ErrRead covers every other failure to open or read a source.
	ErrRead = errors.New("source read failed")
)

// Kind selects which table a source feeds.
type Kind int

const (
	// Movies records are genre|id|name.
	Movies Kind = iota
	// Ratings records are name|rating|user_id.
	Ratings
)

func (k Kind) String() string {
	switch k {
	case Movies:
		return "movies"
	case Ratings:
		return "ratings"
	default:
		return "unknown"
	}
}

// Record is one raw record from a source, before parsing.
type Record struct {
	// Pos is the 1-based line number (files) or row number (tables).
	Pos int
	// Fields are the untrimmed field values.
	Fields []string
}

// Source abstracts over line files and database tables.
// It yields records in order; blank lines are never yielded.
type Source interface {
	// Name identifies the source in reports and logs.
	Name() string
	// Each calls fn for every record. An error from fn stops iteration and is
	// returned unchanged; failures of the source itself wrap ErrNotFound or ErrRead.
	Each(fn func(rec Record) error) error
}
