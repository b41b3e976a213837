package store

import "github.com/RoaringBitmap/roaring"

// Tx is a read handle valid only inside Store.View.
type Tx struct {
	s *Store
}

// Ready reports whether both tables have been loaded.
func (tx *Tx) Ready() bool {
	return tx.s.moviesLoaded && tx.s.ratingsLoaded
}

// Movie resolves a canonical name to the most recently loaded catalog movie.
func (tx *Tx) Movie(k Key) (*Movie, bool) {
	id, ok := tx.s.byName[k]
	if !ok {
		return nil, false
	}
	m, ok := tx.s.movies[id]
	return m, ok
}

// MovieByID returns the catalog entry stored under id.
func (tx *Tx) MovieByID(id int) (*Movie, bool) {
	m, ok := tx.s.movies[id]
	return m, ok
}

// CatalogKeys returns the canonical names that resolve to a catalog movie,
// in first-seen order.
func (tx *Tx) CatalogKeys() []Key {
	keys := make([]Key, 0, len(tx.s.byName))
	for _, k := range tx.s.titles.Keys() {
		if _, ok := tx.s.byName[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// RatedKeys returns the canonical names with at least one rating, in the
// order they were first rated.
func (tx *Tx) RatedKeys() []Key {
	return tx.s.rated.Keys()
}

// Ratings returns every stored rating for the canonical movie k, duplicates
// included. The slice must not be modified.
func (tx *Tx) Ratings(k Key) []Rating {
	return tx.s.byMovie[k]
}

// UserRatings returns every stored rating by user in load order.
func (tx *Tx) UserRatings(user int) []Rating {
	return tx.s.byUser[user]
}

// Title returns the display name for k: the catalog spelling while some
// catalog movie carries k, otherwise the first spelling seen in ratings.
func (tx *Tx) Title(k Key) string {
	if _, ok := tx.s.byName[k]; ok {
		if d, ok := tx.s.titles.Display(k); ok {
			return d
		}
	}
	if d, ok := tx.s.rated.Display(k); ok {
		return d
	}
	if d, ok := tx.s.titles.Display(k); ok {
		return d
	}
	return string(k)
}

// GenreKeys returns canonical genres in first-seen order.
func (tx *Tx) GenreKeys() []Key {
	return tx.s.genres.Keys()
}

// GenreDisplay returns the first-seen spelling of the canonical genre g.
func (tx *Tx) GenreDisplay(g Key) string {
	if d, ok := tx.s.genres.Display(g); ok {
		return d
	}
	return string(g)
}

// Ordinal returns the bitmap ID of the canonical movie k.
func (tx *Tx) Ordinal(k Key) (uint32, bool) {
	ord, ok := tx.s.ordinal[k]
	return ord, ok
}

// KeyAt returns the canonical movie for a bitmap ID.
func (tx *Tx) KeyAt(ord uint32) Key {
	return tx.s.ordKeys[ord]
}

// RatedSet returns a copy of the bitmap of movies with at least one rating.
func (tx *Tx) RatedSet() *roaring.Bitmap {
	return tx.s.ratedSet.Clone()
}

// UserSet returns a copy of the bitmap of movies rated by user.
func (tx *Tx) UserSet(user int) *roaring.Bitmap {
	if bm, ok := tx.s.userSet[user]; ok {
		return bm.Clone()
	}
	return roaring.New()
}

// CatalogSize returns the number of movie ids in the catalog.
func (tx *Tx) CatalogSize() int {
	return len(tx.s.movies)
}
