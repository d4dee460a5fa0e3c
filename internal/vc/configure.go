package vc

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/book-expert/vc-service/internal/core"
)

const (
	extMP3 = ".mp3"

	// lossyResampleRate is the fixed target rate applied when the first
	// input file is an MP3; engineDefaultRate tells the engine to keep its
	// native rate.
	lossyResampleRate = 44100
	engineDefaultRate = 0

	// configSettleDelay is how long the engine is given to finish applying
	// a configuration when it cannot signal readiness itself.
	configSettleDelay = 100 * time.Millisecond
)

// deriveResampleRate picks the target sample rate for a run. Only the first
// file's extension is inspected, even for multi-file batches.
func deriveResampleRate(audioFiles []string) int {
	if filepath.Ext(audioFiles[0]) == extMP3 {
		return lossyResampleRate
	}

	return engineDefaultRate
}

// assembleConfig merges the validated request, the resolved model entry, and
// the generated tag into the immutable parameter set the engine consumes.
func assembleConfig(
	req core.ConversionRequest,
	entry core.ModelEntry,
	tag string,
	audioFiles []string,
) core.ConversionConfig {
	return core.ConversionConfig{
		Tag:                        tag,
		ModelPath:                  entry.ModelPath,
		PitchAlgorithm:             req.PitchAlgorithm,
		PitchLevel:                 req.PitchLevel,
		IndexPath:                  entry.IndexPath,
		IndexInfluence:             req.IndexInfluence,
		RespirationMedianFiltering: req.RespirationMedianFiltering,
		EnvelopeRatio:              req.EnvelopeRatio,
		ConsonantBreathProtection:  req.ConsonantBreathProtection,
		AudioFiles:                 audioFiles,
		ResampleRate:               deriveResampleRate(audioFiles),
	}
}

// applyConfig hands the assembled configuration to the converter and waits
// for it to take effect. Converters that implement core.ReadyAwaiter are
// polled for readiness; all others get a fixed settling delay, which is a
// blocking wait rather than a cancellable operation.
func applyConfig(ctx context.Context, conv core.Converter, cfg core.ConversionConfig) error {
	err := conv.ApplyConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to apply converter configuration: %w", err)
	}

	awaiter, ok := conv.(core.ReadyAwaiter)
	if !ok {
		time.Sleep(configSettleDelay)

		return nil
	}

	err = awaiter.AwaitReady(ctx)
	if err != nil {
		return fmt.Errorf("converter did not become ready: %w", err)
	}

	return nil
}
