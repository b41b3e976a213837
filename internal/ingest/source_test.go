package ingest

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func collect(t *testing.T, src Source) ([]Record, error) {
	t.Helper()
	var recs []Record
	err := src.Each(func(rec Record) error {
		recs = append(recs, rec)
		return nil
	})
	return recs, err
}

func TestFileSource_SkipsBlankLinesKeepsPositions(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "movies.txt", []byte("Comedy|1|A\r\n\n   \nDrama|2|B"), 0o644))

	recs, err := collect(t, NewFileSource(fs, "movies.txt"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1, recs[0].Pos)
	assert.Equal(t, []string{"Comedy", "1", "A"}, recs[0].Fields)
	assert.Equal(t, 4, recs[1].Pos)
	assert.Equal(t, []string{"Drama", "2", "B"}, recs[1].Fields)
}

func TestFileSource_NotFound(t *testing.T) {
	_, err := collect(t, NewFileSource(memfs.New(), "nope.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOSFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ratings.txt")
	require.NoError(t, os.WriteFile(path, []byte("A|4.0|1\nB|3.0|2\n"), 0o644))

	src := NewOSFileSource(path)
	assert.Equal(t, path, src.Name())
	recs, err := collect(t, src)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = collect(t, NewOSFileSource(filepath.Join(dir, "missing.txt")))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOSFileSource_DirectoryIsReadError(t *testing.T) {
	dir := t.TempDir()
	_, err := collect(t, NewOSFileSource(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRead)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func createRatingsDB(t *testing.T, rows [][3]any) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`
		CREATE TABLE movies (genre TEXT, id INTEGER, name TEXT);
		CREATE TABLE ratings (movie TEXT, rating REAL, user_id INTEGER);
	`)
	require.NoError(t, err)

	for _, r := range rows {
		_, err = db.Exec("INSERT INTO ratings (movie, rating, user_id) VALUES (?, ?, ?)", r[0], r[1], r[2])
		require.NoError(t, err)
	}
	_, err = db.Exec("INSERT INTO movies (genre, id, name) VALUES ('Action', 1, 'Heat')")
	require.NoError(t, err)
	return dbPath
}

func TestSQLiteSource_Ratings(t *testing.T) {
	dbPath := createRatingsDB(t, [][3]any{
		{"Heat", 4.5, 1},
		{"Heat", nil, 2},
	})

	recs, err := collect(t, NewSQLiteSource(dbPath, Ratings))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Heat", recs[0].Fields[0])
	assert.Equal(t, "1", recs[0].Fields[2])

	r, err := ParseRating(recs[0])
	require.NoError(t, err)
	assert.Equal(t, 4.5, r.Value)

	// NULL rating becomes an empty field and fails parsing.
	assert.Equal(t, "", recs[1].Fields[1])
	_, err = ParseRating(recs[1])
	assert.Error(t, err)
}

func TestSQLiteSource_Movies(t *testing.T) {
	dbPath := createRatingsDB(t, nil)
	src := NewSQLiteSource(dbPath, Movies)
	assert.Equal(t, dbPath+"#movies", src.Name())

	recs, err := collect(t, src)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	m, err := ParseMovie(recs[0])
	require.NoError(t, err)
	assert.Equal(t, 1, m.ID)
	assert.Equal(t, "Heat", m.Name)
}

func TestSQLiteSource_NotFoundDoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	_, err := collect(t, NewSQLiteSource(path, Movies))
	assert.ErrorIs(t, err, ErrNotFound)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSQLiteSource_MissingTableIsReadError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE other (x TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = collect(t, NewSQLiteSource(dbPath, Ratings))
	assert.ErrorIs(t, err, ErrRead)
}

func TestOpenPath(t *testing.T) {
	assert.IsType(t, &SQLiteSource{}, OpenPath("data/catalog.db", Movies))
	assert.IsType(t, &SQLiteSource{}, OpenPath("data/catalog.SQLITE", Ratings))
	assert.IsType(t, &FileSource{}, OpenPath("data/movies.txt", Movies))
	assert.IsType(t, &FileSource{}, OpenPath("ratings", Ratings))
}
