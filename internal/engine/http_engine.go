package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/vc-service/internal/core"
)

const (
	// readyPollInterval is the delay between configuration readiness probes.
	readyPollInterval = 50 * time.Millisecond

	// readyWaitTimeout bounds the readiness wait even when the caller's
	// context carries no deadline.
	readyWaitTimeout = 10 * time.Second
)

// Static errors.
var ErrConfigNotApplied = errors.New("no configuration has been applied")

// Log formats.
const (
	logFmtConfigApplied  = "Applied engine configuration %s"
	logFmtConversionDone = "Engine converted %d file(s) for tag %s"
)

// HTTPEngine adapts the engine service client to the pipeline's converter
// contract. Configurations are applied remotely and acknowledged through the
// readiness probe, so the pipeline waits on the acknowledgement instead of a
// fixed settling delay.
type HTTPEngine struct {
	client *Client
	logger *logger.Logger

	mu         sync.Mutex
	appliedTag string
}

// NewHTTPEngine creates an HTTP-based conversion engine talking to the
// service at baseURL. The timeout applies to every request the engine makes.
func NewHTTPEngine(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPEngine {
	return NewHTTPEngineWithClient(NewClient(baseURL, timeout), log)
}

// NewHTTPEngineWithClient creates an HTTP-based conversion engine with a
// custom client. This constructor is primarily for testing purposes.
func NewHTTPEngineWithClient(client *Client, log *logger.Logger) *HTTPEngine {
	return &HTTPEngine{
		client:     client,
		logger:     log,
		mu:         sync.Mutex{},
		appliedTag: "",
	}
}

// ApplyConfig stages the configuration on the engine service and records its
// tag for the readiness wait.
func (e *HTTPEngine) ApplyConfig(ctx context.Context, cfg core.ConversionConfig) error {
	err := e.client.ApplyConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to apply engine configuration: %w", err)
	}

	e.mu.Lock()
	e.appliedTag = cfg.Tag
	e.mu.Unlock()

	e.logger.Info(logFmtConfigApplied, cfg.Tag)

	return nil
}

// AwaitReady polls the engine until the last applied configuration is
// acknowledged, the context is cancelled, or the bounded wait expires.
func (e *HTTPEngine) AwaitReady(ctx context.Context) error {
	e.mu.Lock()
	tag := e.appliedTag
	e.mu.Unlock()

	if tag == "" {
		return ErrConfigNotApplied
	}

	ctx, cancel := context.WithTimeout(ctx, readyWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		ready, err := e.client.ConfigReady(ctx, tag)
		if err != nil {
			return fmt.Errorf("failed to check engine readiness: %w", err)
		}

		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf(
				"engine did not acknowledge configuration %s: %w",
				tag,
				ctx.Err(),
			)
		case <-ticker.C:
		}
	}
}

// Convert runs the conversion on the engine service.
func (e *HTTPEngine) Convert(
	ctx context.Context,
	audioFiles []string,
	tag string,
	overwrite bool,
	parallelWorkers int,
) ([]core.ConversionResult, error) {
	req := ConvertRequest{
		AudioFiles:      audioFiles,
		Tag:             tag,
		Overwrite:       overwrite,
		ParallelWorkers: parallelWorkers,
	}

	results, err := e.client.Convert(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("engine conversion failed: %w", err)
	}

	e.logger.Info(logFmtConversionDone, len(results), tag)

	return results, nil
}

// HealthCheck verifies that the engine service is reachable and healthy.
func (e *HTTPEngine) HealthCheck(ctx context.Context) error {
	err := e.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("engine service health check failed: %w", err)
	}

	return nil
}
