package api

// Ranked is one entry of a ranking: a movie or genre display name and its score.
type Ranked struct {
	// Name is the display spelling (first-seen casing) of the movie or genre.
	Name string `json:"name"`
	// Score is the average rating that placed this entry.
	Score float64 `json:"score"`
}

// Preference is a user's preferred genre.
// Found is false when the user has no ratings against catalog movies;
// Genre is then empty and Score is 0.
type Preference struct {
	Genre string  `json:"genre,omitempty"`
	Score float64 `json:"score"`
	Found bool    `json:"found"`
}

// LoadReport summarizes one load call.
type LoadReport struct {
	// Source is the path or table the records came from.
	Source string `json:"source"`
	// Loaded counts valid records taken from this call.
	Loaded int `json:"loaded"`
	// Skipped counts malformed records (blank lines are not counted).
	Skipped int `json:"skipped"`
	// Movies is the number of distinct movies in the store after the call:
	// catalog size for a movie load, rated movies for a ratings load.
	Movies int `json:"movies"`
	// Duplicates counts (movie, user) pairs seen again. Ratings loads only.
	Duplicates int `json:"duplicates,omitempty"`
}
