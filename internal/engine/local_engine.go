package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/book-expert/vc-service/internal/core"
)

// LocalEngine drives a local conversion command line. A configuration is
// staged by ApplyConfig and turned into flags when Convert runs. The binary
// prints one output path per line on stdout.
//
// LocalEngine deliberately has no readiness signal; the pipeline falls back
// to its fixed settling delay.
type LocalEngine struct {
	binaryPath string
	outputDir  string

	mu     sync.Mutex
	staged *core.ConversionConfig
}

// NewLocalEngine creates an engine around the conversion binary at
// binaryPath, writing converted files under outputDir.
func NewLocalEngine(binaryPath, outputDir string) *LocalEngine {
	return &LocalEngine{
		binaryPath: binaryPath,
		outputDir:  outputDir,
		mu:         sync.Mutex{},
		staged:     nil,
	}
}

// ApplyConfig stages the configuration for the next conversion run.
func (e *LocalEngine) ApplyConfig(_ context.Context, cfg core.ConversionConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.staged = &cfg

	return nil
}

// Convert runs the staged configuration against the given files.
func (e *LocalEngine) Convert(
	ctx context.Context,
	audioFiles []string,
	tag string,
	overwrite bool,
	parallelWorkers int,
) ([]core.ConversionResult, error) {
	e.mu.Lock()
	staged := e.staged
	e.mu.Unlock()

	if staged == nil {
		return nil, ErrConfigNotApplied
	}

	args := buildConvertArgs(*staged, e.outputDir, audioFiles, tag, overwrite, parallelWorkers)

	var (
		stdout bytes.Buffer
		stderr bytes.Buffer
	)

	// #nosec G204 -- the binary path comes from validated service configuration
	cmd := exec.CommandContext(ctx, e.binaryPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return nil, fmt.Errorf(
			"conversion binary execution failed: %w - output: %s",
			err,
			stderr.String(),
		)
	}

	return parseOutputPaths(stdout.String(), audioFiles, tag, staged.ResampleRate), nil
}

// buildConvertArgs maps the staged configuration and the run parameters to
// the converter's command-line flags. Input files follow the flags.
func buildConvertArgs(
	cfg core.ConversionConfig,
	outputDir string,
	audioFiles []string,
	tag string,
	overwrite bool,
	parallelWorkers int,
) []string {
	args := []string{
		"--model", cfg.ModelPath,
		"--pitch-algo", cfg.PitchAlgorithm,
		"--pitch-lvl", fmt.Sprintf("%.2f", cfg.PitchLevel),
		"--index-influence", fmt.Sprintf("%.2f", cfg.IndexInfluence),
		"--envelope-ratio", fmt.Sprintf("%.2f", cfg.EnvelopeRatio),
		"--tag", tag,
		"--output-dir", outputDir,
		"--workers", strconv.Itoa(parallelWorkers),
	}

	if cfg.IndexPath != "" {
		args = append(args, "--index", cfg.IndexPath)
	}

	if cfg.ResampleRate > 0 {
		args = append(args, "--resample-sr", strconv.Itoa(cfg.ResampleRate))
	}

	if cfg.RespirationMedianFiltering {
		args = append(args, "--respiration-median-filtering")
	}

	if cfg.ConsonantBreathProtection {
		args = append(args, "--protect-consonants")
	}

	if overwrite {
		args = append(args, "--overwrite")
	}

	return append(args, audioFiles...)
}

// parseOutputPaths pairs each non-empty stdout line with its input file in
// order. Lines beyond the input count keep an empty source path.
func parseOutputPaths(
	output string,
	audioFiles []string,
	tag string,
	resampleRate int,
) []core.ConversionResult {
	lines := strings.Split(output, "\n")
	results := make([]core.ConversionResult, 0, len(audioFiles))

	for _, line := range lines {
		outputPath := strings.TrimSpace(line)
		if outputPath == "" {
			continue
		}

		sourcePath := ""
		if len(results) < len(audioFiles) {
			sourcePath = audioFiles[len(results)]
		}

		results = append(results, core.ConversionResult{
			Tag:             tag,
			SourcePath:      sourcePath,
			OutputPath:      outputPath,
			SampleRate:      resampleRate,
			DurationSeconds: 0,
		})
	}

	return results
}
