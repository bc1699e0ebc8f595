package store

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/movies-api/internal/model"
	"github.com/vyrodovalexey/movies-api/internal/validation"
)

//go:embed seed/movies.json
var defaultSeed []byte

// DefaultSeed returns the movies bundled with the binary.
func DefaultSeed() ([]model.Movie, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeedFile reads seed movies from a YAML or JSON file.
func LoadSeedFile(path string) ([]model.Movie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	movies, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}

	return movies, nil
}

// ParseSeed decodes a YAML or JSON list of movies. Every record must pass
// full validation; records without an id get a fresh one.
func ParseSeed(data []byte) ([]model.Movie, error) {
	var records []map[string]any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	movies := make([]model.Movie, 0, len(records))
	seen := make(map[string]bool, len(records))

	for i, record := range records {
		id, err := seedID(record)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidSeed, i, err)
		}
		delete(record, "id")

		movie, err := validation.Validate(record)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidSeed, i, err)
		}

		if seen[id] {
			return nil, fmt.Errorf("%w: record %d: %s: %w", ErrInvalidSeed, i, id, ErrDuplicateID)
		}
		seen[id] = true

		movie.ID = id
		movies = append(movies, movie)
	}

	return movies, nil
}

func seedID(record map[string]any) (string, error) {
	raw, ok := record["id"]
	if !ok || raw == nil {
		return uuid.New().String(), nil
	}

	id, ok := raw.(string)
	if !ok || id == "" {
		return "", ErrInvalidID
	}

	return id, nil
}
