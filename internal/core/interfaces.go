// Package core defines the domain types and interfaces for the voice-conversion service.
package core

import "context"

// Converter is the external voice-conversion engine. It exposes exactly two
// capabilities: applying a per-run configuration and converting a batch of
// audio files under the tag that configuration was applied for. Alternate
// engines can be substituted without touching the pipeline.
type Converter interface {
	ApplyConfig(ctx context.Context, cfg ConversionConfig) error
	Convert(
		ctx context.Context,
		audioFiles []string,
		tag string,
		overwrite bool,
		parallelWorkers int,
	) ([]ConversionResult, error)
}

// ReadyAwaiter is an optional Converter capability: engines that can signal
// when an applied configuration has taken effect implement it. Engines
// without it get a fixed settling delay after configuration instead.
type ReadyAwaiter interface {
	AwaitReady(ctx context.Context) error
}

// ModelRegistry supplies the ordered collection of voice models available for
// conversion. Implementations are read-only from the service's perspective.
type ModelRegistry interface {
	Models() []ModelEntry
}

// DurationProber reports the duration of an audio file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ObjectStore defines the interface for a blob store holding audio payloads.
// Payloads move through files on disk because the conversion engine operates
// on paths, not byte slices.
type ObjectStore interface {
	DownloadToFile(ctx context.Context, key, destPath string) error
	UploadFile(ctx context.Context, key, srcPath string) error
}
