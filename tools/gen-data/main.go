// gen-data writes a synthetic catalog and ratings set for exercising the
// loaders at scale. A manifest records how many malformed lines and
// duplicate (movie, user) pairs were planted so load reports can be checked.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"
)

var genres = []string{"Action", "Comedy", "Drama", "Horror", "Animation", "Documentary", "Thriller", "Romance"}

// Manifest describes a generated data set.
type Manifest struct {
	Seed       int64 `json:"seed"`
	Movies     int   `json:"movies"`
	Ratings    int   `json:"ratings"`
	Malformed  int   `json:"malformed"`
	Duplicates int   `json:"duplicates"`
	Users      int   `json:"users"`
}

// Options controls generation.
type Options struct {
	Movies    int
	Users     int
	PerUser   int
	Malformed float64 // fraction of extra garbage lines
	Repeat    float64 // fraction of ratings that repeat an earlier pair
	Seed      int64
}

type row [3]string

func main() {
	movies := flag.Int("movies", 1000, "Number of catalog movies")
	users := flag.Int("users", 500, "Number of users")
	perUser := flag.Int("per-user", 20, "Ratings per user")
	malformed := flag.Float64("malformed", 0.01, "Fraction of malformed lines to plant")
	repeat := flag.Float64("repeat", 0.01, "Fraction of duplicate ratings to plant")
	seed := flag.Int64("seed", 1, "Random seed")
	format := flag.String("format", "txt", "Output format: txt or db")
	outDir := flag.String("out", ".", "Output directory")
	flag.Parse()

	opts := Options{
		Movies:    *movies,
		Users:     *users,
		PerUser:   *perUser,
		Malformed: *malformed,
		Repeat:    *repeat,
		Seed:      *seed,
	}
	if opts.Movies <= 0 || opts.Users <= 0 || opts.PerUser <= 0 {
		flag.Usage()
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fatal(err)
	}

	movieRows, ratingRows, m := generate(opts)

	switch *format {
	case "txt":
		writeText(filepath.Join(*outDir, "movies.txt"), movieRows)
		writeText(filepath.Join(*outDir, "ratings.txt"), ratingRows)
	case "db":
		if err := writeDB(filepath.Join(*outDir, "catalog.db"), movieRows, ratingRows); err != nil {
			fatal(err)
		}
	default:
		fatal(fmt.Errorf("unknown format %q", *format))
	}

	manifest := oj.JSON(m, &oj.Options{Indent: 2, Sort: true, UseTags: true})
	if err := os.WriteFile(filepath.Join(*outDir, "manifest.json"), []byte(manifest+"\n"), 0o644); err != nil {
		fatal(err)
	}
	fmt.Println(manifest)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// generate builds catalog and rating rows. Malformed rows carry a
// non-numeric id or rating so they survive both output formats.
func generate(opts Options) (movies, ratings []row, m Manifest) {
	rng := rand.New(rand.NewSource(opts.Seed))
	m = Manifest{Seed: opts.Seed, Users: opts.Users}

	titles := make([]string, opts.Movies)
	for i := range titles {
		titles[i] = fmt.Sprintf("Movie %05d", i+1)
		genre := genres[rng.Intn(len(genres))]
		// Vary case so canonical matching is exercised.
		if rng.Intn(4) == 0 {
			genre = strings.ToLower(genre)
		}
		movies = append(movies, row{genre, fmt.Sprint(i + 1), titles[i]})
		m.Movies++
		if rng.Float64() < opts.Malformed {
			movies = append(movies, row{genre, "id-" + fmt.Sprint(i), titles[i] + " (bad)"})
			m.Malformed++
		}
	}

	type pair struct{ movie, user int }
	seen := make(map[pair]bool)
	var done []pair
	for u := 1; u <= opts.Users; u++ {
		for j := 0; j < opts.PerUser; j++ {
			p := pair{rng.Intn(opts.Movies), u}
			if len(done) > 0 && rng.Float64() < opts.Repeat {
				p = done[rng.Intn(len(done))]
			}
			if seen[p] {
				m.Duplicates++
			}
			seen[p] = true
			done = append(done, p)

			title := titles[p.movie]
			if rng.Intn(5) == 0 {
				title = strings.ToUpper(title)
			}
			score := float64(rng.Intn(9)+2) / 2
			ratings = append(ratings, row{title, fmt.Sprintf("%.1f", score), fmt.Sprint(p.user)})
			m.Ratings++

			if rng.Float64() < opts.Malformed {
				ratings = append(ratings, row{title, "n/a", fmt.Sprint(p.user)})
				m.Malformed++
			}
		}
	}
	return movies, ratings, m
}

func writeText(path string, rows []row) {
	fh, err := os.Create(path)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = fh.Close() }()
	if err := writeRows(fh, rows); err != nil {
		fatal(err)
	}
}

func writeRows(w io.Writer, rows []row) error {
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s|%s|%s\n", r[0], r[1], r[2]); err != nil {
			return err
		}
	}
	return nil
}

func writeDB(path string, movies, ratings []row) error {
	_ = os.Remove(path) // Overwrite
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(`
		CREATE TABLE movies (genre TEXT, id TEXT, name TEXT);
		CREATE TABLE ratings (movie TEXT, rating TEXT, user_id TEXT);
	`); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	insert := func(stmt string, rows []row) error {
		ps, err := tx.Prepare(stmt)
		if err != nil {
			return err
		}
		defer func() { _ = ps.Close() }()
		for _, r := range rows {
			if _, err := ps.Exec(r[0], r[1], r[2]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert("INSERT INTO movies (genre, id, name) VALUES (?, ?, ?)", movies); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert movies: %w", err)
	}
	if err := insert("INSERT INTO ratings (movie, rating, user_id) VALUES (?, ?, ?)", ratings); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert ratings: %w", err)
	}
	return tx.Commit()
}
