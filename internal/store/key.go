package store

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key is the canonical identity of a movie name or genre.
// Display strings are plain strings; only Canon produces a Key.
type Key string

// Canon trims surrounding whitespace and Unicode case-folds s.
func Canon(s string) Key {
	return Key(cases.Fold().String(strings.TrimSpace(s)))
}

// Registry maps canonical keys to the first display spelling observed for
// them, and remembers the order keys were first seen in.
type Registry struct {
	order   []Key
	display map[Key]string
}

func NewRegistry() *Registry {
	return &Registry{display: make(map[Key]string)}
}

// Observe records display for k unless k was already seen.
// It reports whether k was new.
func (r *Registry) Observe(k Key, display string) bool {
	if _, ok := r.display[k]; ok {
		return false
	}
	r.display[k] = display
	r.order = append(r.order, k)
	return true
}

// Display returns the first-seen spelling for k.
func (r *Registry) Display(k Key) (string, bool) {
	d, ok := r.display[k]
	return d, ok
}

// Keys returns keys in first-seen order. The slice must not be modified.
func (r *Registry) Keys() []Key {
	return r.order
}

// Len returns the number of distinct keys.
func (r *Registry) Len() int {
	return len(r.order)
}
