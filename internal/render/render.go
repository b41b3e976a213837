// Package render writes query results for people (text) or programs (JSON).
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentic-research/cinerank/api"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var rule = strings.Repeat("-", 60)

// Renderer formats results onto w.
type Renderer struct {
	w      io.Writer
	format string
	sel    jp.Expr
}

// New builds a Renderer. selector is an optional JSONPath expression applied
// to JSON documents before they are written; it is ignored for text.
func New(w io.Writer, format, selector string) (*Renderer, error) {
	switch format {
	case "", FormatText:
		format = FormatText
	case FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	r := &Renderer{w: w, format: format}
	if selector != "" {
		x, err := jp.ParseString(selector)
		if err != nil {
			return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
		}
		r.sel = x
	}
	return r, nil
}

// TopMovies renders the overall movie ranking.
func (r *Renderer) TopMovies(n int, items []api.Ranked) error {
	if r.format == FormatJSON {
		return r.json(map[string]any{"query": "top_movies", "n": n, "results": rankedDoc(items)})
	}
	return r.rankedText(fmt.Sprintf("Top %d Most Popular Movies:", n), items)
}

// TopMoviesInGenre renders the ranking within one genre.
func (r *Renderer) TopMoviesInGenre(genre string, n int, items []api.Ranked) error {
	if r.format == FormatJSON {
		return r.json(map[string]any{"query": "top_movies_in_genre", "genre": genre, "n": n, "results": rankedDoc(items)})
	}
	if len(items) == 0 {
		return r.line("No movies found in genre '%s' or no ratings available.", genre)
	}
	return r.rankedText(fmt.Sprintf("Top %d Most Popular Movies in '%s':", n, genre), items)
}

// TopGenres renders the genre ranking.
func (r *Renderer) TopGenres(n int, items []api.Ranked) error {
	if r.format == FormatJSON {
		return r.json(map[string]any{"query": "top_genres", "n": n, "results": rankedDoc(items)})
	}
	return r.rankedText(fmt.Sprintf("Top %d Most Popular Genres:", n), items)
}

// Preference renders a user's preferred genre.
func (r *Renderer) Preference(user int, p api.Preference) error {
	if r.format == FormatJSON {
		doc := map[string]any{"query": "user_top_genre", "user": user, "found": p.Found, "score": p.Score}
		if p.Found {
			doc["genre"] = p.Genre
		} else {
			doc["genre"] = nil
		}
		return r.json(doc)
	}
	if !p.Found {
		return r.line("No preference found for user %d.", user)
	}
	if err := r.header(fmt.Sprintf("User %d's Preferred Genre:", user)); err != nil {
		return err
	}
	return r.line("%s - Average Rating: %.2f", p.Genre, p.Score)
}

// Recommendations renders recommended movie names.
func (r *Renderer) Recommendations(user int, items []api.Ranked) error {
	if r.format == FormatJSON {
		return r.json(map[string]any{"query": "recommend", "user": user, "results": rankedDoc(items)})
	}
	if len(items) == 0 {
		return r.line("No recommendations available for user %d.", user)
	}
	if err := r.header(fmt.Sprintf("Recommended Movies for User %d:", user)); err != nil {
		return err
	}
	for i, it := range items {
		if err := r.line("%d. %s", i+1, it.Name); err != nil {
			return err
		}
	}
	return nil
}

// Average renders a single movie's average.
func (r *Renderer) Average(movie string, avg float64) error {
	if r.format == FormatJSON {
		return r.json(map[string]any{"query": "average", "movie": movie, "score": avg})
	}
	return r.line("%s - Average Rating: %.2f", movie, avg)
}

// Load renders a load summary.
func (r *Renderer) Load(kind string, rep api.LoadReport) error {
	if r.format == FormatJSON {
		return r.json(map[string]any{
			"query":      "load",
			"kind":       kind,
			"source":     rep.Source,
			"loaded":     rep.Loaded,
			"skipped":    rep.Skipped,
			"movies":     rep.Movies,
			"duplicates": rep.Duplicates,
		})
	}
	if kind == "ratings" {
		return r.line("Successfully loaded ratings for %d movies (%d ratings, %d duplicates, %d skipped).",
			rep.Movies, rep.Loaded, rep.Duplicates, rep.Skipped)
	}
	return r.line("Successfully loaded %d movies (%d skipped).", rep.Movies, rep.Skipped)
}

func (r *Renderer) rankedText(title string, items []api.Ranked) error {
	if err := r.header(title); err != nil {
		return err
	}
	for i, it := range items {
		if err := r.line("%d. %s - Average Rating: %.2f", i+1, it.Name, it.Score); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) header(title string) error {
	_, err := fmt.Fprintf(r.w, "\n%s\n%s\n", title, rule)
	return err
}

func (r *Renderer) line(format string, args ...any) error {
	_, err := fmt.Fprintf(r.w, format+"\n", args...)
	return err
}

func (r *Renderer) json(doc map[string]any) error {
	var out any = doc
	if r.sel != nil {
		matches := r.sel.Get(doc)
		if len(matches) == 1 {
			out = matches[0]
		} else {
			out = matches
		}
	}
	_, err := fmt.Fprintln(r.w, oj.JSON(out, &oj.Options{Indent: 2, Sort: true}))
	return err
}

func rankedDoc(items []api.Ranked) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = map[string]any{"name": it.Name, "score": it.Score}
	}
	return out
}
