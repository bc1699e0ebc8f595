// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/movies-api/internal/model"
)

// Store errors.
var (
	ErrNotFound    = errors.New("movie not found")
	ErrDuplicateID = errors.New("movie ID already exists")
	ErrInvalidID   = errors.New("invalid movie ID")
	ErrNilMovie    = errors.New("movie cannot be nil")
	ErrInvalidSeed = errors.New("invalid seed data")
)

// Filter narrows the result of List. The zero value matches every movie.
type Filter struct {
	// Genre keeps movies having a genre equal to it, ignoring case.
	Genre string
}

// Matches reports whether the movie passes the filter.
func (f Filter) Matches(m *model.Movie) bool {
	if f.Genre == "" {
		return true
	}
	return m.HasGenre(f.Genre)
}

// Store defines the interface for movie storage operations.
// Implementations keep insertion order.
type Store interface {
	// List returns the movies passing the filter, in insertion order.
	List(ctx context.Context, filter Filter) ([]model.Movie, error)

	// Get retrieves a movie by its ID.
	Get(ctx context.Context, id string) (*model.Movie, error)

	// Create appends a movie to the store and returns it with a generated ID.
	Create(ctx context.Context, movie *model.Movie) (*model.Movie, error)

	// Update merges the patch onto an existing movie and returns the result.
	Update(ctx context.Context, id string, patch model.MoviePatch) (*model.Movie, error)

	// Delete removes a movie from the store by its ID and returns the removed record.
	Delete(ctx context.Context, id string) (*model.Movie, error)

	// Len returns the number of stored movies.
	Len(ctx context.Context) (int, error)
}
