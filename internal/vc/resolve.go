package vc

import (
	"fmt"
	"strings"

	"github.com/book-expert/vc-service/internal/core"
)

// modelFileExtension is the required extension of trained voice-model weights.
const modelFileExtension = ".pth"

// resolveModel finds the first registry entry whose name matches the request
// exactly and verifies its weights file carries the trained-model extension.
// The registry is read in order and never modified.
func resolveModel(name string, models []core.ModelEntry) (core.ModelEntry, error) {
	for _, entry := range models {
		if entry.Name != name {
			continue
		}

		if !strings.HasSuffix(entry.ModelPath, modelFileExtension) {
			return core.ModelEntry{}, ErrInvalidModelFile
		}

		return entry, nil
	}

	return core.ModelEntry{}, fmt.Errorf("%w: %s", ErrModelNotFound, name)
}
