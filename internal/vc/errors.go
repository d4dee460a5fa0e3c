// Package vc implements the voice-conversion request pipeline: input
// validation, run tagging, model resolution, configuration assembly, and the
// uniform error wrapping around the external converter call.
package vc

import "errors"

// Static errors. The capitalized texts are carried verbatim from the engine
// contract and must survive wrapping unchanged.
var (
	// ErrNoAudioFiles indicates an empty or absent audio file list.
	ErrNoAudioFiles = errors.New("no audio files provided")
	// ErrAudioFileNotFound indicates a listed audio file does not exist.
	ErrAudioFileNotFound = errors.New("audio file not found")
	// ErrModelNotFound indicates the requested model name is not in the registry.
	ErrModelNotFound = errors.New("Model not found")
	// ErrInvalidModelFile indicates the matched entry's weights file has the
	// wrong extension.
	ErrInvalidModelFile = errors.New("Invalid model file (must be .pth)")
	// ErrEmptyResult indicates the converter returned an empty result sequence.
	ErrEmptyResult = errors.New("conversion produced no results")
	// ErrConversionFailed wraps every pipeline failure presented to callers.
	ErrConversionFailed = errors.New("conversion failed")
)
