// Package model defines data structures used throughout the application.
package model

import (
	"slices"
	"strings"
	"time"
)

// Movie is a single record of the movie collection.
type Movie struct {
	ID       string   `json:"id" yaml:"id"`
	Title    string   `json:"title" yaml:"title"`
	Genre    []string `json:"genre" yaml:"genre"`
	Year     int      `json:"year" yaml:"year"`
	Director string   `json:"director" yaml:"director"`
	Duration int      `json:"duration" yaml:"duration"`
	Rate     *float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Poster   string   `json:"poster" yaml:"poster"`
}

// Clone returns a deep copy of the movie.
func (m Movie) Clone() Movie {
	out := m
	out.Genre = slices.Clone(m.Genre)
	if m.Rate != nil {
		rate := *m.Rate
		out.Rate = &rate
	}
	return out
}

// HasGenre reports whether any genre of the movie matches the given one
// under Unicode case folding.
func (m Movie) HasGenre(genre string) bool {
	for _, g := range m.Genre {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}

// MoviePatch carries the fields of a partial update. Nil fields are left
// untouched when the patch is applied.
type MoviePatch struct {
	Title    *string
	Genre    []string
	Year     *int
	Director *string
	Duration *int
	Rate     *float64
	Poster   *string
}

// IsEmpty reports whether the patch changes nothing.
func (p MoviePatch) IsEmpty() bool {
	return p.Title == nil && p.Genre == nil && p.Year == nil &&
		p.Director == nil && p.Duration == nil && p.Rate == nil && p.Poster == nil
}

// Apply returns a copy of m with the patch fields merged over it.
func (p MoviePatch) Apply(m Movie) Movie {
	out := m.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Genre != nil {
		out.Genre = slices.Clone(p.Genre)
	}
	if p.Year != nil {
		out.Year = *p.Year
	}
	if p.Director != nil {
		out.Director = *p.Director
	}
	if p.Duration != nil {
		out.Duration = *p.Duration
	}
	if p.Rate != nil {
		rate := *p.Rate
		out.Rate = &rate
	}
	if p.Poster != nil {
		out.Poster = *p.Poster
	}
	return out
}

// MessageResponse is the body of informational and not-found responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// FieldError describes a single invalid field of a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse is the body returned when a payload fails validation.
type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

// MovieEventType identifies the kind of change a MovieEvent describes.
type MovieEventType string

// Movie event types.
const (
	MovieCreated MovieEventType = "movie.created"
	MovieUpdated MovieEventType = "movie.updated"
	MovieDeleted MovieEventType = "movie.deleted"
)

// MovieEvent is published after every successful change to the collection.
type MovieEvent struct {
	Type      MovieEventType `json:"type"`
	Movie     Movie          `json:"movie"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewMovieEvent creates an event for the given movie stamped with the current time.
func NewMovieEvent(eventType MovieEventType, movie Movie) MovieEvent {
	return MovieEvent{
		Type:      eventType,
		Movie:     movie.Clone(),
		Timestamp: time.Now().UTC(),
	}
}
