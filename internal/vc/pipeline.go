package vc

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/vc-service/internal/core"
)

// Engine hyperparameters fixed for every run. The worker count caps the
// converter's internal parallelism; it is not a property of this pipeline,
// which stays synchronous.
const (
	overwriteOutputs = false
	parallelWorkers  = 8
)

// Pipeline orchestrates one voice-conversion request end to end. It owns no
// cross-call state and holds no locks, so concurrent Convert calls are
// independent of each other.
type Pipeline struct {
	registry core.ModelRegistry
	prober   core.DurationProber
	tags     *TagGenerator
	log      *logger.Logger
}

// NewPipeline creates a Pipeline over the given model registry, duration
// prober, and tag generator.
func NewPipeline(
	registry core.ModelRegistry,
	prober core.DurationProber,
	tags *TagGenerator,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		registry: registry,
		prober:   prober,
		tags:     tags,
		log:      log,
	}
}

// Convert runs one request through the pipeline and returns the first result
// the converter produced. Every failure, from any stage or collaborator, is
// caught here exactly once and wrapped into ErrConversionFailed with the
// original message preserved; there is no retry and no partial success.
func (p *Pipeline) Convert(
	ctx context.Context,
	req core.ConversionRequest,
	conv core.Converter,
) (core.ConversionResult, error) {
	result, err := p.run(ctx, req, conv)
	if err != nil {
		return core.ConversionResult{}, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	return result, nil
}

// run executes the stages in order: validate inputs, probe the first file's
// duration, generate the run tag, resolve the model, assemble and apply the
// configuration, convert, extract the first result.
func (p *Pipeline) run(
	ctx context.Context,
	req core.ConversionRequest,
	conv core.Converter,
) (core.ConversionResult, error) {
	audioFiles, err := ValidateAudioFiles(req.AudioFiles)
	if err != nil {
		return core.ConversionResult{}, err
	}

	// The duration is informational only, but a probe failure still fails
	// the run like any other stage error.
	duration, err := p.prober.Duration(ctx, audioFiles[0])
	if err != nil {
		return core.ConversionResult{}, fmt.Errorf(
			"failed to probe duration of %q: %w", audioFiles[0], err,
		)
	}

	p.log.Info("Duration: %.2f seconds", duration)

	tag := p.tags.Next()

	entry, err := resolveModel(req.ModelName, p.registry.Models())
	if err != nil {
		return core.ConversionResult{}, err
	}

	cfg := assembleConfig(req, entry, tag, audioFiles)

	err = applyConfig(ctx, conv, cfg)
	if err != nil {
		return core.ConversionResult{}, err
	}

	results, err := conv.Convert(ctx, audioFiles, tag, overwriteOutputs, parallelWorkers)
	if err != nil {
		return core.ConversionResult{}, fmt.Errorf("converter execution failed: %w", err)
	}

	if len(results) == 0 {
		return core.ConversionResult{}, ErrEmptyResult
	}

	p.log.Info("Conversion completed. Tag: %s, results: %d", tag, len(results))

	return results[0], nil
}
