package tests

import (
	"bufio"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentic-research/cinerank/api"
	"github.com/agentic-research/cinerank/internal/ingest"
	"github.com/agentic-research/cinerank/internal/rank"
	"github.com/agentic-research/cinerank/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const (
	moviesFile  = "../testdata/movies.txt"
	ratingsFile = "../testdata/ratings.txt"
)

// testFixture is one store loaded through the same path the CLI uses.
type testFixture struct {
	store   *store.Store
	engine  *rank.Engine
	movies  api.LoadReport
	ratings api.LoadReport
}

func setup(t *testing.T, moviesPath, ratingsPath string) *testFixture {
	t.Helper()

	s := store.New()
	loader := ingest.NewLoader(s, zerolog.Nop())

	mrep, err := loader.Load(ingest.Movies, ingest.OpenPath(moviesPath, ingest.Movies))
	require.NoError(t, err)
	rrep, err := loader.Load(ingest.Ratings, ingest.OpenPath(ratingsPath, ingest.Ratings))
	require.NoError(t, err)

	return &testFixture{
		store:   s,
		engine:  rank.NewEngine(s, rank.Options{}, zerolog.Nop()),
		movies:  mrep,
		ratings: rrep,
	}
}

func names(rs []api.Ranked) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestEndToEnd_LoadReports(t *testing.T) {
	f := setup(t, moviesFile, ratingsFile)

	assert.Equal(t, 10, f.movies.Loaded)
	assert.Equal(t, 1, f.movies.Skipped)
	assert.Equal(t, 10, f.movies.Movies)

	assert.Equal(t, 17, f.ratings.Loaded)
	assert.Equal(t, 1, f.ratings.Skipped)
	assert.Equal(t, 1, f.ratings.Duplicates)
	assert.Equal(t, 11, f.ratings.Movies)
}

func TestEndToEnd_Queries(t *testing.T) {
	f := setup(t, moviesFile, ratingsFile)
	e := f.engine

	assert.Equal(t, []api.Ranked{
		{Name: "Sense and Sensibility (1995)", Score: 5},
		{Name: "Heat (1995)", Score: 4.5},
		{Name: "The Usual Suspects (1995)", Score: 4.5},
		{Name: "Casino (1995)", Score: 4},
		{Name: "Toy Story (1995)", Score: 4},
	}, e.TopMovies(5))

	assert.Equal(t,
		[]string{"Father of the Bride Part II (1995)", "Grumpier Old Men (1995)"},
		names(e.TopMoviesInGenre("comedy", 2)))
	assert.Equal(t,
		[]string{"Heat (1995)", "GoldenEye (1995)", "Sudden Death (1995)"},
		names(e.TopMoviesInGenre("ACTION", 10)))

	genres := e.TopGenres(10)
	assert.Equal(t, []string{"Drama", "Animation", "Action", "Comedy"}, names(genres))
	assert.InDelta(t, 4.5, genres[0].Score, 1e-9)
	assert.InDelta(t, 3.75, genres[1].Score, 1e-9)
	assert.InDelta(t, 10.0/3, genres[2].Score, 1e-9)
	assert.InDelta(t, 3.0, genres[3].Score, 1e-9)

	assert.InDelta(t, 4.5, e.Average("HEAT (1995)"), 1e-9)
	assert.InDelta(t, 4.5, e.Average("the usual suspects (1995)"), 1e-9)
	assert.Equal(t, 0.0, e.Average("Broken Record"))
}

func TestEndToEnd_Users(t *testing.T) {
	f := setup(t, moviesFile, ratingsFile)
	e := f.engine

	tests := []struct {
		user  int
		genre string
		score float64
		recs  []string
	}{
		{1, "Action", 4.75, []string{"GoldenEye (1995)", "Sudden Death (1995)"}},
		{2, "Drama", 4.5, []string{"Sense and Sensibility (1995)"}},
		{3, "Drama", 4.25, []string{}},
		{4, "Comedy", 4, []string{"Father of the Bride Part II (1995)", "Sabrina (1995)"}},
	}
	for _, tt := range tests {
		pref := e.UserTopGenre(tt.user)
		require.True(t, pref.Found, "user %d", tt.user)
		assert.Equal(t, tt.genre, pref.Genre, "user %d", tt.user)
		assert.InDelta(t, tt.score, pref.Score, 1e-9, "user %d", tt.user)
		assert.Equal(t, tt.recs, names(e.Recommend(tt.user)), "user %d", tt.user)
	}

	assert.False(t, e.UserTopGenre(5).Found)
	assert.Empty(t, e.Recommend(5))
}

func TestEndToEnd_IndependentInstancesAgree(t *testing.T) {
	a := setup(t, moviesFile, ratingsFile)
	b := setup(t, moviesFile, ratingsFile)

	assert.Equal(t, a.engine.TopMovies(20), b.engine.TopMovies(20))
	assert.Equal(t, a.engine.TopGenres(20), b.engine.TopGenres(20))
	for u := 1; u <= 5; u++ {
		assert.Equal(t, a.engine.Recommend(u), b.engine.Recommend(u))
	}
}

// toSQLite copies the text fixtures into movies/ratings tables. Lines that
// do not split into three fields are stored as NULL rows so they are
// skipped on load the same way.
func toSQLite(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`
		CREATE TABLE movies (genre TEXT, id TEXT, name TEXT);
		CREATE TABLE ratings (movie TEXT, rating TEXT, user_id TEXT);
	`)
	require.NoError(t, err)

	copyLines := func(path, insert string) {
		fh, err := os.Open(path)
		require.NoError(t, err)
		defer func() { _ = fh.Close() }()

		sc := bufio.NewScanner(fh)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			parts := strings.Split(line, "|")
			if len(parts) != 3 {
				_, err = db.Exec(insert, nil, nil, nil)
			} else {
				_, err = db.Exec(insert, parts[0], parts[1], parts[2])
			}
			require.NoError(t, err)
		}
		require.NoError(t, sc.Err())
	}
	copyLines(moviesFile, "INSERT INTO movies (genre, id, name) VALUES (?, ?, ?)")
	copyLines(ratingsFile, "INSERT INTO ratings (movie, rating, user_id) VALUES (?, ?, ?)")
	return dbPath
}

func TestEndToEnd_SQLiteMatchesText(t *testing.T) {
	text := setup(t, moviesFile, ratingsFile)
	dbPath := toSQLite(t)
	db := setup(t, dbPath, dbPath)

	assert.Equal(t, text.movies.Loaded, db.movies.Loaded)
	assert.Equal(t, text.movies.Skipped, db.movies.Skipped)
	assert.Equal(t, text.ratings.Loaded, db.ratings.Loaded)
	assert.Equal(t, text.ratings.Duplicates, db.ratings.Duplicates)

	assert.Equal(t, text.engine.TopMovies(20), db.engine.TopMovies(20))
	assert.Equal(t, text.engine.TopGenres(20), db.engine.TopGenres(20))
	for u := 1; u <= 5; u++ {
		assert.Equal(t, text.engine.UserTopGenre(u), db.engine.UserTopGenre(u))
		assert.Equal(t, text.engine.Recommend(u), db.engine.Recommend(u))
	}
}

func TestEndToEnd_MissingFileLeavesEngineGated(t *testing.T) {
	s := store.New()
	loader := ingest.NewLoader(s, zerolog.Nop())
	e := rank.NewEngine(s, rank.Options{}, zerolog.Nop())

	_, err := loader.Load(ingest.Movies, ingest.OpenPath(moviesFile, ingest.Movies))
	require.NoError(t, err)
	_, err = loader.Load(ingest.Ratings, ingest.OpenPath("../testdata/nope.txt", ingest.Ratings))
	require.ErrorIs(t, err, ingest.ErrNotFound)

	assert.False(t, s.Ready())
	assert.Empty(t, e.TopMovies(5))
	assert.False(t, e.UserTopGenre(1).Found)
}
