package ingest

import (
	"errors"

	"github.com/agentic-research/cinerank/api"
	"github.com/agentic-research/cinerank/internal/store"
	"github.com/rs/zerolog"
)

// Loader drives the Catalog and Rating loads into one Store.
//
// Each load stages the parsed records and commits them only after the
// source has been read to the end, so a failed load leaves the store and
// its load flags untouched. A retry is a fresh full read.
type Loader struct {
	store *store.Store
	log   zerolog.Logger
}

func NewLoader(s *store.Store, logger zerolog.Logger) *Loader {
	return &Loader{
		store: s,
		log:   logger.With().Str("component", "loader").Logger(),
	}
}

// LoadMovies reads genre|id|name records and upserts them by id.
func (l *Loader) LoadMovies(src Source) (api.LoadReport, error) {
	rep := api.LoadReport{Source: src.Name()}
	var batch []store.Movie

	err := src.Each(func(rec Record) error {
		m, err := ParseMovie(rec)
		if err != nil {
			rep.Skipped++
			l.log.Debug().Err(err).Str("source", rep.Source).Msg("skipping malformed movie record")
			return nil
		}
		batch = append(batch, m)
		rep.Loaded++
		return nil
	})
	if err != nil {
		l.logFailure(Movies, rep.Source, err)
		return api.LoadReport{Source: rep.Source}, err
	}

	rep.Movies = l.store.CommitMovies(batch)
	l.summarize(Movies, rep)
	return rep, nil
}

// LoadRatings reads name|rating|user_id records and appends them.
// Ratings for movies missing from the catalog are kept under their own
// spelling. Repeated (movie, user) pairs are counted but still stored.
func (l *Loader) LoadRatings(src Source) (api.LoadReport, error) {
	rep := api.LoadReport{Source: src.Name()}
	var batch []store.Rating

	err := src.Each(func(rec Record) error {
		r, err := ParseRating(rec)
		if err != nil {
			rep.Skipped++
			l.log.Debug().Err(err).Str("source", rep.Source).Msg("skipping malformed rating record")
			return nil
		}
		batch = append(batch, r)
		rep.Loaded++
		return nil
	})
	if err != nil {
		l.logFailure(Ratings, rep.Source, err)
		return api.LoadReport{Source: rep.Source}, err
	}

	rep.Duplicates, rep.Movies = l.store.CommitRatings(batch)
	l.summarize(Ratings, rep)
	return rep, nil
}

// Load dispatches on kind.
func (l *Loader) Load(kind Kind, src Source) (api.LoadReport, error) {
	if kind == Ratings {
		return l.LoadRatings(src)
	}
	return l.LoadMovies(src)
}

func (l *Loader) summarize(kind Kind, rep api.LoadReport) {
	if rep.Loaded == 0 {
		l.log.Warn().Str("source", rep.Source).Msgf("no valid %s entries found", kind)
	}
	if rep.Skipped > 0 {
		l.log.Warn().Str("source", rep.Source).Int("skipped", rep.Skipped).Msgf("skipped malformed %s lines", kind)
	}
	ev := l.log.Info().
		Str("source", rep.Source).
		Int("loaded", rep.Loaded).
		Int("skipped", rep.Skipped).
		Int("movies", rep.Movies)
	if kind == Ratings {
		ev = ev.Int("duplicates", rep.Duplicates)
	}
	ev.Msgf("%s loaded", kind)
}

func (l *Loader) logFailure(kind Kind, source string, err error) {
	if errors.Is(err, ErrNotFound) {
		l.log.Error().Str("source", source).Msgf("%s file not found", kind)
		return
	}
	l.log.Error().Err(err).Str("source", source).Msgf("error loading %s", kind)
}
