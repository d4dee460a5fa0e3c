// main package for the vc-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vc-service/internal/config"
	"github.com/book-expert/vc-service/internal/core"
	"github.com/book-expert/vc-service/internal/engine"
	"github.com/book-expert/vc-service/internal/fileutil"
	"github.com/book-expert/vc-service/internal/objectstore"
	"github.com/book-expert/vc-service/internal/probe"
	"github.com/book-expert/vc-service/internal/registry"
	"github.com/book-expert/vc-service/internal/vc"
	"github.com/book-expert/vc-service/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "vc-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	// 4. Run the service until a shutdown signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = runService(ctx, cfg, finalLog)
	if err != nil {
		finalLog.Error("Service terminated with error: %v", err)

		return err
	}

	finalLog.Info("Service shut down cleanly.")

	return nil
}

// runService wires the NATS connection, object store, model registry, and
// conversion engine together and runs the worker loop.
func runService(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	err := fileutil.EnsureDir(cfg.Paths.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize object store: %w", err)
	}

	models, err := registry.LoadFile(cfg.Paths.ModelsFile)
	if err != nil {
		return fmt.Errorf("failed to load model registry: %w", err)
	}

	converter, err := buildConverter(cfg, log)
	if err != nil {
		return err
	}

	engineTimeout := time.Duration(cfg.Engine.TimeoutSeconds) * time.Second
	pipeline := vc.NewPipeline(models, probe.NewFFProbe(engineTimeout), vc.NewTagGenerator(nil), log)

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.AudioChunkCreatedSubject,
		store,
		pipeline,
		converter,
		cfg.Voice,
		cfg.Paths.WorkDir,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	log.System(
		"VC-Service successfully initialized. Listening for jobs on subject: %s",
		cfg.NATS.AudioChunkCreatedSubject,
	)

	err = natsWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker run failed: %w", err)
	}

	return nil
}

// buildConverter selects the conversion engine named by the configuration.
func buildConverter(cfg *config.Config, log *logger.Logger) (core.Converter, error) {
	timeout := time.Duration(cfg.Engine.TimeoutSeconds) * time.Second

	switch cfg.Engine.Mode {
	case config.EngineModeHTTP:
		return engine.NewHTTPEngine(cfg.Engine.URL, timeout, log), nil
	case config.EngineModeLocal:
		err := fileutil.EnsureDir(cfg.Engine.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create engine output directory: %w", err)
		}

		return engine.NewLocalEngine(cfg.Engine.LocalBinary, cfg.Engine.OutputDir), nil
	default:
		return nil, fmt.Errorf("%w: got %q", config.ErrEngineModeInvalid, cfg.Engine.Mode)
	}
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
