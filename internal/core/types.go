package core

import "github.com/book-expert/events"

// ConversionRequest describes one voice-conversion run: the audio files to
// convert, the name of the voice model to convert them with, and the engine
// tuning parameters. Requests are built fresh per invocation, never persisted.
type ConversionRequest struct {
	ModelName                  string
	AudioFiles                 []string
	PitchAlgorithm             string
	PitchLevel                 float64
	IndexInfluence             float64
	RespirationMedianFiltering bool
	EnvelopeRatio              float64
	ConsonantBreathProtection  bool
}

// ModelEntry is one record of the model registry: a named voice model with
// its weights file and auxiliary similarity index.
type ModelEntry struct {
	Name      string `toml:"model_name"`
	ModelPath string `toml:"model"`
	IndexPath string `toml:"index"`
}

// ConversionConfig is the merged parameter set handed to the converter ahead
// of a run. It is immutable after assembly; the JSON field names are the
// engine's wire contract.
type ConversionConfig struct {
	Tag                        string   `json:"tag"`
	ModelPath                  string   `json:"file_model"`
	PitchAlgorithm             string   `json:"pitch_algo"`
	PitchLevel                 float64  `json:"pitch_lvl"`
	IndexPath                  string   `json:"file_index"`
	IndexInfluence             float64  `json:"index_influence"`
	RespirationMedianFiltering bool     `json:"respiration_median_filtering"`
	EnvelopeRatio              float64  `json:"envelope_ratio"`
	ConsonantBreathProtection  bool     `json:"consonant_breath_protection"`
	AudioFiles                 []string `json:"audio_files"`
	ResampleRate               int      `json:"resample_sr"`
}

// ConversionResult is one converted artifact as reported by the engine. The
// pipeline treats it as opaque and surfaces only the first element of the
// engine's result sequence.
type ConversionResult struct {
	Tag             string  `json:"tag"`
	SourcePath      string  `json:"source_path"`
	OutputPath      string  `json:"output_path"`
	SampleRate      int     `json:"sample_rate"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// VoiceConvertedEvent announces that an audio chunk has been re-voiced and
// the converted object is available in the object store.
type VoiceConvertedEvent struct {
	Header     events.EventHeader `json:"header"`
	AudioKey   string             `json:"audio_key"`
	OutputKey  string             `json:"output_key"`
	ModelName  string             `json:"model_name"`
	Tag        string             `json:"tag"`
	PageNumber int                `json:"page_number"`
	TotalPages int                `json:"total_pages"`
}
