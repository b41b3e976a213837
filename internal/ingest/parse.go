package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agentic-research/cinerank/internal/store"
)

const fieldsPerRecord = 3

// LineError describes why a record was skipped.
type LineError struct {
	Pos    int
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Pos, e.Reason)
}

// ParseMovie parses a genre|id|name record.
func ParseMovie(rec Record) (store.Movie, error) {
	if len(rec.Fields) != fieldsPerRecord {
		return store.Movie{}, &LineError{Pos: rec.Pos, Reason: fmt.Sprintf("want %d fields, got %d", fieldsPerRecord, len(rec.Fields))}
	}
	genre := strings.TrimSpace(rec.Fields[0])
	id, err := strconv.Atoi(strings.TrimSpace(rec.Fields[1]))
	if err != nil {
		return store.Movie{}, &LineError{Pos: rec.Pos, Reason: fmt.Sprintf("bad movie id %q", rec.Fields[1])}
	}
	name := strings.TrimSpace(rec.Fields[2])
	return store.NewMovie(id, name, genre), nil
}

// ParseRating parses a name|rating|user_id record.
// NaN and infinite ratings are rejected so averages stay totally ordered.
func ParseRating(rec Record) (store.Rating, error) {
	if len(rec.Fields) != fieldsPerRecord {
		return store.Rating{}, &LineError{Pos: rec.Pos, Reason: fmt.Sprintf("want %d fields, got %d", fieldsPerRecord, len(rec.Fields))}
	}
	name := strings.TrimSpace(rec.Fields[0])
	value, err := strconv.ParseFloat(strings.TrimSpace(rec.Fields[1]), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return store.Rating{}, &LineError{Pos: rec.Pos, Reason: fmt.Sprintf("bad rating %q", rec.Fields[1])}
	}
	user, err := strconv.Atoi(strings.TrimSpace(rec.Fields[2]))
	if err != nil {
		return store.Rating{}, &LineError{Pos: rec.Pos, Reason: fmt.Sprintf("bad user id %q", rec.Fields[2])}
	}
	return store.NewRating(name, value, user), nil
}
