// Package config provides the configuration structure for the vc-service.
package config

import (
	"errors"
	"fmt"
	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Engine modes.
const (
	EngineModeHTTP  = "http"
	EngineModeLocal = "local"
)

// Static validation errors.
var (
	ErrNATSURLEmpty      = errors.New("nats url cannot be empty")
	ErrSubjectEmpty      = errors.New("audio chunk created subject cannot be empty")
	ErrBucketEmpty       = errors.New("audio object store bucket cannot be empty")
	ErrModelNameEmpty    = errors.New("voice model name cannot be empty")
	ErrModelsFileEmpty   = errors.New("models file path cannot be empty")
	ErrEngineModeInvalid = errors.New("engine mode must be http or local")
	ErrEngineURLEmpty    = errors.New("engine url cannot be empty in http mode")
	ErrEngineBinaryEmpty = errors.New("engine local binary cannot be empty in local mode")
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL                      string `toml:"url"`
	AudioChunkCreatedSubject string `toml:"audio_chunk_created_subject"`
	AudioObjectStoreBucket   string `toml:"audio_object_store_bucket"`
}

// VoiceConfig holds the voice profile applied to every conversion.
type VoiceConfig struct {
	ModelName                  string  `toml:"model_name"`
	PitchAlgorithm             string  `toml:"pitch_algorithm"`
	PitchLevel                 float64 `toml:"pitch_level"`
	IndexInfluence             float64 `toml:"index_influence"`
	RespirationMedianFiltering bool    `toml:"respiration_median_filtering"`
	EnvelopeRatio              float64 `toml:"envelope_ratio"`
	ConsonantBreathProtection  bool    `toml:"consonant_breath_protection"`
}

// EngineConfig holds the conversion engine selection and its settings.
type EngineConfig struct {
	Mode           string `toml:"mode"`
	URL            string `toml:"url"`
	LocalBinary    string `toml:"local_binary"`
	OutputDir      string `toml:"output_dir"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	WorkDir     string `toml:"work_dir"`
	ModelsFile  string `toml:"models_file"`
}

// Config is the root configuration structure.
type Config struct {
	NATS   NATSConfig   `toml:"nats"`
	Voice  VoiceConfig  `toml:"voice"`
	Engine EngineConfig `toml:"engine"`
	Paths  PathsConfig  `toml:"paths"`
}

// Load loads and validates the configuration for the vc-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	validationErr := cfg.Validate()
	if validationErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validationErr)
	}

	return &cfg, nil
}

// Validate checks the fields required to run the service.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return ErrNATSURLEmpty
	}

	if c.NATS.AudioChunkCreatedSubject == "" {
		return ErrSubjectEmpty
	}

	if c.NATS.AudioObjectStoreBucket == "" {
		return ErrBucketEmpty
	}

	if c.Voice.ModelName == "" {
		return ErrModelNameEmpty
	}

	if c.Paths.ModelsFile == "" {
		return ErrModelsFileEmpty
	}

	return c.validateEngine()
}

func (c *Config) validateEngine() error {
	switch c.Engine.Mode {
	case EngineModeHTTP:
		if c.Engine.URL == "" {
			return ErrEngineURLEmpty
		}
	case EngineModeLocal:
		if c.Engine.LocalBinary == "" {
			return ErrEngineBinaryEmpty
		}
	default:
		return fmt.Errorf("%w: got %q", ErrEngineModeInvalid, c.Engine.Mode)
	}

	return nil
}
