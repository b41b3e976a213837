package store

import (
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// Movie is a catalog entry. Name and Genre keep the spelling they were
// loaded with; Key and GenreKey are their canonical forms.
type Movie struct {
	ID       int
	Name     string
	Genre    string
	Key      Key
	GenreKey Key

	seq uint64 // commit order, set by the store
}

// NewMovie builds a Movie with its canonical keys filled in.
func NewMovie(id int, name, genre string) Movie {
	return Movie{
		ID:       id,
		Name:     name,
		Genre:    genre,
		Key:      Canon(name),
		GenreKey: Canon(genre),
	}
}

// Rating is one stored rating. Title is the spelling found in the ratings
// record and is only used when the movie is missing from the catalog.
type Rating struct {
	Movie Key
	Title string
	Value float64
	User  int
}

// NewRating builds a Rating keyed by the canonical form of title.
func NewRating(title string, value float64, user int) Rating {
	return Rating{
		Movie: Canon(title),
		Title: title,
		Value: value,
		User:  user,
	}
}

type pair struct {
	movie Key
	user  int
}

// Store owns the Movie and Rating tables for one engine instance.
// Writers commit whole batches under the write lock; readers run inside View.
type Store struct {
	mu sync.RWMutex

	movies map[int]*Movie
	byName map[Key]int // canonical name -> most recently loaded id
	seq    uint64
	titles *Registry   // catalog display names
	genres *Registry   // genre display names

	rated   *Registry // spellings seen in ratings, for movies absent from the catalog
	byMovie map[Key][]Rating
	byUser  map[int][]Rating
	pairs   map[pair]struct{}

	// Roaring bitmap index over movie ordinals.
	// Every canonical movie key, catalog or rated, gets a stable uint32.
	ordinal  map[Key]uint32
	ordKeys  []Key
	ratedSet *roaring.Bitmap
	userSet  map[int]*roaring.Bitmap

	moviesLoaded  bool
	ratingsLoaded bool
}

func New() *Store {
	return &Store{
		movies:   make(map[int]*Movie),
		byName:   make(map[Key]int),
		titles:   NewRegistry(),
		genres:   NewRegistry(),
		rated:    NewRegistry(),
		byMovie:  make(map[Key][]Rating),
		byUser:   make(map[int][]Rating),
		pairs:    make(map[pair]struct{}),
		ordinal:  make(map[Key]uint32),
		ratedSet: roaring.New(),
		userSet:  make(map[int]*roaring.Bitmap),
	}
}

// CommitMovies upserts a batch of movies by id and marks movies as loaded.
// It returns the catalog size after the commit.
func (s *Store) CommitMovies(batch []Movie) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range batch {
		s.upsertMovie(batch[i])
	}
	s.moviesLoaded = true
	return len(s.movies)
}

// upsertMovie must be called with s.mu held.
func (s *Store) upsertMovie(m Movie) {
	s.seq++
	m.seq = s.seq
	old, renamed := s.movies[m.ID]
	renamed = renamed && old.Key != m.Key && s.byName[old.Key] == m.ID

	s.movies[m.ID] = &m
	s.byName[m.Key] = m.ID
	if renamed {
		s.rebind(old.Key)
	}
	s.titles.Observe(m.Key, m.Name)
	s.genres.Observe(m.GenreKey, m.Genre)
	s.ordinalFor(m.Key)
}

// rebind points the name index for k at the most recently loaded movie
// still carrying that name, or drops it when none is left.
// Must be called with s.mu held.
func (s *Store) rebind(k Key) {
	var latest *Movie
	for _, m := range s.movies {
		if m.Key == k && (latest == nil || m.seq > latest.seq) {
			latest = m
		}
	}
	if latest == nil {
		delete(s.byName, k)
		return
	}
	s.byName[k] = latest.ID
}

// CommitRatings appends a batch of ratings and marks ratings as loaded.
// A (movie, user) pair already present in the store or earlier in the batch
// is counted as a duplicate; the rating is stored regardless.
// It returns the duplicate count and the number of rated movies.
func (s *Store) CommitRatings(batch []Rating) (duplicates, movies int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range batch {
		p := pair{movie: r.Movie, user: r.User}
		if _, seen := s.pairs[p]; seen {
			duplicates++
		} else {
			s.pairs[p] = struct{}{}
		}

		s.byMovie[r.Movie] = append(s.byMovie[r.Movie], r)
		s.byUser[r.User] = append(s.byUser[r.User], r)
		s.rated.Observe(r.Movie, r.Title)

		ord := s.ordinalFor(r.Movie)
		s.ratedSet.Add(ord)
		bm, ok := s.userSet[r.User]
		if !ok {
			bm = roaring.New()
			s.userSet[r.User] = bm
		}
		bm.Add(ord)
	}
	s.ratingsLoaded = true
	return duplicates, len(s.byMovie)
}

// ordinalFor assigns k an internal bitmap ID if it has none.
// Must be called with s.mu held.
func (s *Store) ordinalFor(k Key) uint32 {
	if ord, ok := s.ordinal[k]; ok {
		return ord
	}
	ord := uint32(len(s.ordKeys))
	s.ordinal[k] = ord
	s.ordKeys = append(s.ordKeys, k)
	return ord
}

// Loaded reports which of the two tables have had a successful load.
func (s *Store) Loaded() (movies, ratings bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moviesLoaded, s.ratingsLoaded
}

// Ready reports whether both tables have been loaded.
func (s *Store) Ready() bool {
	m, r := s.Loaded()
	return m && r
}

// View runs fn with the read lock held. The Tx must not escape fn.
func (s *Store) View(fn func(tx *Tx)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&Tx{s: s})
}
