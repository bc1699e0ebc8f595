package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/movies-api/internal/model"
)

var moviesStored = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "movies_stored",
		Help: "Number of movies held by the in-memory store",
	},
)

// MemoryStore implements Store with an ordered in-memory slice.
// Lookups scan the slice; the collection is expected to stay small.
type MemoryStore struct {
	mu     sync.RWMutex
	movies []model.Movie
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		movies: make([]model.Movie, 0),
	}
}

// Load appends movies that already carry an ID, such as seed records.
// Nothing is stored if any ID is empty or collides with a stored one.
func (s *MemoryStore) Load(ctx context.Context, movies []model.Movie) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("load movies: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.movies)+len(movies))
	for i := range s.movies {
		seen[s.movies[i].ID] = true
	}

	for i := range movies {
		id := movies[i].ID
		if id == "" {
			return fmt.Errorf("load movies: record %d: %w", i, ErrInvalidID)
		}
		if seen[id] {
			return fmt.Errorf("load movies: %s: %w", id, ErrDuplicateID)
		}
		seen[id] = true
	}

	for i := range movies {
		s.movies = append(s.movies, movies[i].Clone())
	}
	moviesStored.Set(float64(len(s.movies)))

	return nil
}

// List returns the movies passing the filter, in insertion order.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]model.Movie, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list movies: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	movies := make([]model.Movie, 0, len(s.movies))
	for i := range s.movies {
		if filter.Matches(&s.movies[i]) {
			movies = append(movies, s.movies[i].Clone())
		}
	}

	return movies, nil
}

// Get retrieves a movie by its ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Movie, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get movie: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	movie := s.movies[idx].Clone()
	return &movie, nil
}

// Create appends a movie to the store and returns it with a generated ID.
// Any ID set on the input is ignored.
func (s *MemoryStore) Create(ctx context.Context, movie *model.Movie) (*model.Movie, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create movie: %w", ctx.Err())
	default:
	}

	if movie == nil {
		return nil, fmt.Errorf("create movie: %w", ErrNilMovie)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newMovie := movie.Clone()
	newMovie.ID = s.newID()

	s.movies = append(s.movies, newMovie)
	moviesStored.Set(float64(len(s.movies)))

	created := newMovie.Clone()
	return &created, nil
}

// Update merges the patch onto an existing movie, keeping its position.
func (s *MemoryStore) Update(ctx context.Context, id string, patch model.MoviePatch) (*model.Movie, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update movie: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	if patch.IsEmpty() {
		current := s.movies[idx].Clone()
		return &current, nil
	}

	updated := patch.Apply(s.movies[idx])
	updated.ID = id
	s.movies[idx] = updated

	result := updated.Clone()
	return &result, nil
}

// Delete removes a movie from the store by its ID and returns the removed record.
func (s *MemoryStore) Delete(ctx context.Context, id string) (*model.Movie, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("delete movie: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	removed := s.movies[idx]
	s.movies = slices.Delete(s.movies, idx, idx+1)
	moviesStored.Set(float64(len(s.movies)))

	return &removed, nil
}

// Len returns the number of stored movies.
func (s *MemoryStore) Len(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("count movies: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.movies), nil
}

// indexOf returns the position of the movie with the given ID or -1.
// Callers must hold the lock.
func (s *MemoryStore) indexOf(id string) int {
	for i := range s.movies {
		if s.movies[i].ID == id {
			return i
		}
	}
	return -1
}

// newID returns a UUID not used by any stored movie. Callers must hold the write lock.
func (s *MemoryStore) newID() string {
	for {
		id := uuid.New().String()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}
