// Package registry provides the catalogue of voice models available to the
// conversion pipeline. The catalogue is read-only once loaded; lookup order
// is the declaration order of the source.
package registry

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/book-expert/vc-service/internal/core"
)

// Static errors for registry loading.
var (
	ErrNoModels       = errors.New("models file defines no models")
	ErrModelNameEmpty = errors.New("model entry has an empty name")
	ErrDuplicateModel = errors.New("duplicate model name")
)

// modelsFile mirrors the on-disk TOML layout: a sequence of [[models]]
// tables whose order is preserved.
type modelsFile struct {
	Models []core.ModelEntry `toml:"models"`
}

// Static is a fixed, in-memory model registry.
type Static struct {
	entries []core.ModelEntry
}

// NewStatic validates the given entries and wraps them in a registry.
func NewStatic(entries []core.ModelEntry) (*Static, error) {
	err := validateEntries(entries)
	if err != nil {
		return nil, err
	}

	return &Static{entries: entries}, nil
}

// Models returns the registered models in their declared order.
func (s *Static) Models() []core.ModelEntry {
	return s.entries
}

// LoadFile reads a TOML models file and returns the registry it defines.
func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file %q: %w", path, err)
	}

	var file modelsFile

	err = toml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse models file %q: %w", path, err)
	}

	reg, err := NewStatic(file.Models)
	if err != nil {
		return nil, fmt.Errorf("invalid models file %q: %w", path, err)
	}

	return reg, nil
}

func validateEntries(entries []core.ModelEntry) error {
	if len(entries) == 0 {
		return ErrNoModels
	}

	seen := make(map[string]struct{}, len(entries))

	for _, entry := range entries {
		if entry.Name == "" {
			return ErrModelNameEmpty
		}

		_, exists := seen[entry.Name]
		if exists {
			return fmt.Errorf("%w: %s", ErrDuplicateModel, entry.Name)
		}

		seen[entry.Name] = struct{}{}
	}

	return nil
}
