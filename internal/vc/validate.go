package vc

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidateAudioFiles checks that every path in files refers to an existing
// file and resolves each to an absolute path. The returned slice preserves
// the input order and length; a single file is passed as a one-element slice.
// The filesystem is only inspected, never modified.
func ValidateAudioFiles(files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoAudioFiles
	}

	validFiles := make([]string, 0, len(files))

	for _, filePath := range files {
		_, statErr := os.Stat(filePath)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				return nil, fmt.Errorf("%w: %s", ErrAudioFileNotFound, filePath)
			}

			return nil, fmt.Errorf("error checking audio file %q: %w", filePath, statErr)
		}

		absPath, absErr := filepath.Abs(filePath)
		if absErr != nil {
			return nil, fmt.Errorf("could not resolve absolute path for %q: %w", filePath, absErr)
		}

		validFiles = append(validFiles, absPath)
	}

	return validFiles, nil
}
