package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vc-service/internal/core"
	"github.com/book-expert/vc-service/internal/engine"
	"github.com/book-expert/vc-service/internal/probe"
	"github.com/book-expert/vc-service/internal/registry"
	"github.com/book-expert/vc-service/internal/vc"
)

// Flag names.
const (
	flagFiles             = "files"
	flagModel             = "model"
	flagModels            = "models"
	flagEngineURL         = "engine-url"
	flagPitchAlgo         = "pitch-algo"
	flagPitchLevel        = "pitch-level"
	flagIndexInfluence    = "index-influence"
	flagRespirationFilter = "respiration-filter"
	flagEnvelopeRatio     = "envelope-ratio"
	flagProtectConsonants = "protect-consonants"
	flagLogDir            = "log-dir"
	flagHealth            = "health"
)

// Flag descriptions.
const (
	flagFilesDesc             = "Comma-separated list of audio files to convert"
	flagModelDesc             = "Name of the voice model to convert with"
	flagModelsDesc            = "Path to the TOML models file"
	flagEngineURLDesc         = "Base URL of the conversion engine service"
	flagPitchAlgoDesc         = "Pitch extraction algorithm"
	flagPitchLevelDesc        = "Pitch shift in semitones"
	flagIndexInfluenceDesc    = "Similarity index influence (0.0 to 1.0)"
	flagRespirationFilterDesc = "Apply median filtering to respiration artifacts"
	flagEnvelopeRatioDesc     = "Output envelope mix ratio (0.0 to 1.0)"
	flagProtectConsonantsDesc = "Protect voiceless consonants and breaths"
	flagLogDirDesc            = "Directory for the client log file"
	flagHealthDesc            = "Check conversion service health and exit"
)

// Error and log messages.
const (
	errFailedToInitLogger = "Failed to initialize logger: %v"
	errFailedToLoadModels = "Failed to load models file: %v"
	errHealthCheckFailed  = "Health check failed: %v"
	errServiceNotHealthy  = "Conversion service is not healthy: %v\n"
	msgServiceHealthy     = "Conversion service is healthy"
	errNoFilesProvided    = "At least one input file must be provided via --files"
	errNoModelProvided    = "A voice model must be selected via --model"
	errFailedToConvert    = "Failed to convert audio: %v"
)

// Log messages.
const (
	logClientInitialized = "VC client initialized (engine: %s)"
	logConvertingFiles   = "Converting %d file(s) with model %s"
	logSuccess           = "Successfully converted audio: %s"
	logConverted         = "Converted: %s\n"
)

// Defaults.
const (
	logFileName           = "vc-client.log"
	defaultModelsFile     = "models.toml"
	defaultEngineURL      = "http://localhost:8000"
	defaultPitchAlgo      = "rmvpe"
	defaultIndexInfluence = 0.75
	defaultEnvelopeRatio  = 0.25
	healthCheckTimeout    = 10 * time.Second
	conversionTimeout     = 10 * time.Minute
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	files             string
	model             string
	models            string
	engineURL         string
	pitchAlgo         string
	pitchLevel        float64
	indexInfluence    float64
	respirationFilter bool
	envelopeRatio     float64
	protectConsonants bool
	logDir            string
	health            bool
}

func main() {
	err := run()
	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point, returning an error on failure.
func run() error {
	flags := parseFlags()

	clientLog, err := setup(flags.logDir)
	if err != nil {
		return err
	}
	defer clientLog.Close()

	clientLog.Info(logClientInitialized, flags.engineURL)

	if flags.health {
		return handleHealthCheck(flags, clientLog)
	}

	return handleConversion(flags, clientLog)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags
	flag.StringVar(&flags.files, flagFiles, "", flagFilesDesc)
	flag.StringVar(&flags.model, flagModel, "", flagModelDesc)
	flag.StringVar(&flags.models, flagModels, defaultModelsFile, flagModelsDesc)
	flag.StringVar(&flags.engineURL, flagEngineURL, defaultEngineURL, flagEngineURLDesc)
	flag.StringVar(&flags.pitchAlgo, flagPitchAlgo, defaultPitchAlgo, flagPitchAlgoDesc)
	flag.Float64Var(&flags.pitchLevel, flagPitchLevel, 0, flagPitchLevelDesc)
	flag.Float64Var(&flags.indexInfluence, flagIndexInfluence, defaultIndexInfluence, flagIndexInfluenceDesc)
	flag.BoolVar(&flags.respirationFilter, flagRespirationFilter, false, flagRespirationFilterDesc)
	flag.Float64Var(&flags.envelopeRatio, flagEnvelopeRatio, defaultEnvelopeRatio, flagEnvelopeRatioDesc)
	flag.BoolVar(&flags.protectConsonants, flagProtectConsonants, false, flagProtectConsonantsDesc)
	flag.StringVar(&flags.logDir, flagLogDir, "", flagLogDirDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.Parse()

	return flags
}

// setup initializes the client logger.
func setup(logDir string) (*logger.Logger, error) {
	if logDir == "" {
		logDir = os.TempDir()
	}

	clientLog, err := logger.New(logDir, logFileName)
	if err != nil {
		return nil, fmt.Errorf(errFailedToInitLogger, err)
	}

	return clientLog, nil
}

// handleHealthCheck performs a service health check and prints the result.
func handleHealthCheck(flags appFlags, clientLog *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	client := engine.NewClient(flags.engineURL, healthCheckTimeout)

	err := client.HealthCheck(ctx)
	if err != nil {
		clientLog.Error(errHealthCheckFailed, err)
		fmt.Printf(errServiceNotHealthy, err)

		return err
	}

	fmt.Println(msgServiceHealthy)

	return nil
}

// validateArguments checks that the flags name at least one input file and a
// voice model.
func validateArguments(flags appFlags) error {
	if len(splitFiles(flags.files)) == 0 {
		return errors.New(errNoFilesProvided)
	}

	if flags.model == "" {
		return errors.New(errNoModelProvided)
	}

	return nil
}

// handleConversion runs one conversion end to end and prints the output path.
func handleConversion(flags appFlags, clientLog *logger.Logger) error {
	err := validateArguments(flags)
	if err != nil {
		flag.Usage()
		clientLog.Error("%v", err)

		return err
	}

	models, err := registry.LoadFile(flags.models)
	if err != nil {
		clientLog.Error(errFailedToLoadModels, err)

		return fmt.Errorf(errFailedToLoadModels, err)
	}

	files := splitFiles(flags.files)
	request := core.ConversionRequest{
		ModelName:                  flags.model,
		AudioFiles:                 files,
		PitchAlgorithm:             flags.pitchAlgo,
		PitchLevel:                 flags.pitchLevel,
		IndexInfluence:             flags.indexInfluence,
		RespirationMedianFiltering: flags.respirationFilter,
		EnvelopeRatio:              flags.envelopeRatio,
		ConsonantBreathProtection:  flags.protectConsonants,
	}

	ctx, cancel := context.WithTimeout(context.Background(), conversionTimeout)
	defer cancel()

	conversionEngine := engine.NewHTTPEngine(flags.engineURL, conversionTimeout, clientLog)
	pipeline := vc.NewPipeline(models, probe.NewFFProbe(0), vc.NewTagGenerator(nil), clientLog)

	clientLog.Info(logConvertingFiles, len(files), flags.model)

	result, err := pipeline.Convert(ctx, request, conversionEngine)
	if err != nil {
		clientLog.Error(errFailedToConvert, err)

		return fmt.Errorf(errFailedToConvert, err)
	}

	clientLog.Info(logSuccess, result.OutputPath)
	fmt.Printf(logConverted, result.OutputPath)

	return nil
}

// splitFiles splits a comma-separated file list, dropping empty entries.
func splitFiles(raw string) []string {
	parts := strings.Split(raw, ",")
	files := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			files = append(files, trimmed)
		}
	}

	return files
}
