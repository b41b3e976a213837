// Package rank answers ranking queries over a loaded store.
//
// Every query recomputes from the full tables under one read lock; nothing
// is cached between calls. Queries issued before both the movie and the
// rating loads succeeded return an empty ranking or a not-found preference.
package rank

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/agentic-research/cinerank/api"
	"github.com/agentic-research/cinerank/internal/store"
	"github.com/rs/zerolog"
)

// DefaultRecommendLimit caps Recommend results.
const DefaultRecommendLimit = 3

const notReadyMsg = "load both movies and ratings first"

// Options tunes an Engine.
type Options struct {
	RecommendLimit int
}

// Engine is the read side over one Store.
type Engine struct {
	store *store.Store
	opts  Options
	log   zerolog.Logger
}

func NewEngine(s *store.Store, opts Options, logger zerolog.Logger) *Engine {
	if opts.RecommendLimit <= 0 {
		opts.RecommendLimit = DefaultRecommendLimit
	}
	return &Engine{
		store: s,
		opts:  opts,
		log:   logger.With().Str("component", "rank").Logger(),
	}
}

// view runs fn under the store read lock if both tables are loaded.
// It reports whether fn ran.
func (e *Engine) view(query string, fn func(tx *store.Tx)) bool {
	ran := false
	e.store.View(func(tx *store.Tx) {
		if !tx.Ready() {
			return
		}
		fn(tx)
		ran = true
	})
	if !ran {
		e.log.Warn().Str("query", query).Msg(notReadyMsg)
	}
	return ran
}

// Average returns the mean of every stored rating for the movie, duplicates
// included, or 0 when it has none. The name is matched case-insensitively.
func (e *Engine) Average(movie string) float64 {
	var avg float64
	e.view("average", func(tx *store.Tx) {
		avg = average(tx, store.Canon(movie))
	})
	return avg
}

func average(tx *store.Tx, k store.Key) float64 {
	rs := tx.Ratings(k)
	if len(rs) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rs {
		sum += r.Value
	}
	return sum / float64(len(rs))
}

// TopMovies ranks every movie with at least one rating, catalog or not.
func (e *Engine) TopMovies(n int) []api.Ranked {
	var out []api.Ranked
	e.view("top_movies", func(tx *store.Tx) {
		keys := tx.RatedKeys()
		ranked := make([]api.Ranked, 0, len(keys))
		for _, k := range keys {
			ranked = append(ranked, api.Ranked{Name: tx.Title(k), Score: average(tx, k)})
		}
		out = top(ranked, n)
	})
	return nonNil(out)
}

// TopMoviesInGenre ranks rated catalog movies whose genre matches genre
// case-insensitively.
func (e *Engine) TopMoviesInGenre(genre string, n int) []api.Ranked {
	var out []api.Ranked
	e.view("top_movies_in_genre", func(tx *store.Tx) {
		out = top(genreMovies(tx, store.Canon(genre)), n)
	})
	return nonNil(out)
}

// genreMovies scores every rated catalog movie in genre g, in catalog order.
func genreMovies(tx *store.Tx, g store.Key) []api.Ranked {
	var ranked []api.Ranked
	for _, k := range tx.CatalogKeys() {
		m, _ := tx.Movie(k)
		if m.GenreKey != g || len(tx.Ratings(k)) == 0 {
			continue
		}
		ranked = append(ranked, api.Ranked{Name: tx.Title(k), Score: average(tx, k)})
	}
	return ranked
}

// TopGenres ranks genres by the mean of their rated movies' averages.
// Each movie weighs the same regardless of how many ratings it has.
// Genres without a rated movie are left out.
func (e *Engine) TopGenres(n int) []api.Ranked {
	var out []api.Ranked
	e.view("top_genres", func(tx *store.Tx) {
		sums := make(map[store.Key]float64)
		counts := make(map[store.Key]int)
		for _, k := range tx.CatalogKeys() {
			if len(tx.Ratings(k)) == 0 {
				continue
			}
			m, _ := tx.Movie(k)
			sums[m.GenreKey] += average(tx, k)
			counts[m.GenreKey]++
		}

		var ranked []api.Ranked
		for _, g := range tx.GenreKeys() {
			if counts[g] == 0 {
				continue
			}
			ranked = append(ranked, api.Ranked{
				Name:  tx.GenreDisplay(g),
				Score: sums[g] / float64(counts[g]),
			})
		}
		out = top(ranked, n)
	})
	return nonNil(out)
}

// UserTopGenre returns the genre with the user's highest mean rating,
// counting only that user's ratings of catalog movies.
// Equal means go to the alphabetically greatest genre name.
func (e *Engine) UserTopGenre(user int) api.Preference {
	var pref api.Preference
	e.view("user_top_genre", func(tx *store.Tx) {
		pref, _ = userTopGenre(tx, user)
	})
	return pref
}

func userTopGenre(tx *store.Tx, user int) (api.Preference, store.Key) {
	sums := make(map[store.Key]float64)
	counts := make(map[store.Key]int)
	var order []store.Key
	for _, r := range tx.UserRatings(user) {
		m, ok := tx.Movie(r.Movie)
		if !ok {
			continue
		}
		if counts[m.GenreKey] == 0 {
			order = append(order, m.GenreKey)
		}
		sums[m.GenreKey] += r.Value
		counts[m.GenreKey]++
	}

	var best api.Preference
	var bestKey store.Key
	for _, g := range order {
		mean := sums[g] / float64(counts[g])
		name := tx.GenreDisplay(g)
		if !best.Found || mean > best.Score || (mean == best.Score && name > best.Genre) {
			best = api.Preference{Genre: name, Score: mean, Found: true}
			bestKey = g
		}
	}
	return best, bestKey
}

// Recommend returns the best-rated movies in the user's top genre that the
// user has not rated yet, at most Options.RecommendLimit of them.
func (e *Engine) Recommend(user int) []api.Ranked {
	var out []api.Ranked
	e.view("recommend", func(tx *store.Tx) {
		pref, g := userTopGenre(tx, user)
		if !pref.Found {
			return
		}

		// rated by anyone, in genre g, not rated by user
		candidates := tx.RatedSet()
		inGenre := roaring.New()
		for _, k := range tx.CatalogKeys() {
			if m, _ := tx.Movie(k); m.GenreKey == g {
				if ord, ok := tx.Ordinal(k); ok {
					inGenre.Add(ord)
				}
			}
		}
		candidates.And(inGenre)
		candidates.AndNot(tx.UserSet(user))

		ranked := make([]api.Ranked, 0, candidates.GetCardinality())
		it := candidates.Iterator()
		for it.HasNext() {
			k := tx.KeyAt(it.Next())
			ranked = append(ranked, api.Ranked{Name: tx.Title(k), Score: average(tx, k)})
		}
		out = top(ranked, e.opts.RecommendLimit)
	})
	return nonNil(out)
}

// top sorts by score descending, then name ascending, and keeps n entries.
func top(ranked []api.Ranked, n int) []api.Ranked {
	if n <= 0 {
		return nil
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func nonNil(r []api.Ranked) []api.Ranked {
	if r == nil {
		return []api.Ranked{}
	}
	return r
}
