// Package worker provides a NATS worker that processes voice-conversion jobs.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/vc-service/internal/config"
	"github.com/book-expert/vc-service/internal/core"
	"github.com/book-expert/vc-service/internal/fileutil"
	"github.com/book-expert/vc-service/internal/vc"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	handleMessageTimeout  = 5 * time.Minute
	defaultAudioExtension = ".wav"
)

// ErrAudioKeyEmpty indicates that an incoming event names no audio object.
var ErrAudioKeyEmpty = errors.New("audio key cannot be empty")

// NatsWorker listens for audio chunk events on a NATS subject and re-voices
// each chunk through the conversion pipeline.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	pipeline       *vc.Pipeline
	converter      core.Converter
	voice          config.VoiceConfig
	workDir        string
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	pipeline *vc.Pipeline,
	converter core.Converter,
	voice config.VoiceConfig,
	workDir string,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		pipeline:       pipeline,
		converter:      converter,
		voice:          voice,
		workDir:        workDir,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	outputKey, tag, processErr := w.processConversionJob(ctx, event)
	if processErr != nil {
		w.log.Error(
			"Failed to process conversion job for workflow %s: %v",
			event.Header.WorkflowID,
			processErr,
		)

		return
	}

	replyEvent := &core.VoiceConvertedEvent{
		Header:     event.Header,
		AudioKey:   event.AudioKey,
		OutputKey:  outputKey,
		ModelName:  w.voice.ModelName,
		Tag:        tag,
		PageNumber: event.PageNumber,
		TotalPages: event.TotalPages,
	}

	err = w.publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error(
			"Failed to publish reply event for workflow %s: %v",
			event.Header.WorkflowID,
			err,
		)
	}
}

// processConversionJob downloads the chunk, runs the conversion pipeline, and
// uploads the converted artifact. It returns the new object key and the run tag.
func (w *NatsWorker) processConversionJob(
	ctx context.Context,
	event *events.AudioChunkCreatedEvent,
) (string, string, error) {
	inputPath, err := w.downloadChunk(ctx, event.AudioKey)
	if err != nil {
		return "", "", err
	}
	defer w.removeTempFile(inputPath)

	request := core.ConversionRequest{
		ModelName:                  w.voice.ModelName,
		AudioFiles:                 []string{inputPath},
		PitchAlgorithm:             w.voice.PitchAlgorithm,
		PitchLevel:                 w.voice.PitchLevel,
		IndexInfluence:             w.voice.IndexInfluence,
		RespirationMedianFiltering: w.voice.RespirationMedianFiltering,
		EnvelopeRatio:              w.voice.EnvelopeRatio,
		ConsonantBreathProtection:  w.voice.ConsonantBreathProtection,
	}

	started := time.Now()

	result, err := w.pipeline.Convert(ctx, request, w.converter)
	if err != nil {
		return "", "", fmt.Errorf("failed to convert audio chunk '%s': %w", event.AudioKey, err)
	}

	outputKey, err := w.uploadResult(ctx, result)
	if err != nil {
		return "", "", err
	}

	w.log.Info(
		"Converted %s to %s in %s",
		event.AudioKey,
		outputKey,
		fileutil.FormatDuration(time.Since(started).Seconds()),
	)

	return outputKey, result.Tag, nil
}

// downloadChunk fetches the audio object into the work directory, preserving
// its extension when it is a known audio type.
func (w *NatsWorker) downloadChunk(ctx context.Context, audioKey string) (string, error) {
	extension := filepath.Ext(audioKey)
	if !fileutil.IsAudioFile(audioKey) {
		extension = defaultAudioExtension
	}

	inputPath := filepath.Join(w.workDir, uuid.NewString()+extension)

	err := w.store.DownloadToFile(ctx, audioKey, inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to download audio chunk '%s': %w", audioKey, err)
	}

	return inputPath, nil
}

// uploadResult stores the converted file under a fresh object key and removes
// the local artifact.
func (w *NatsWorker) uploadResult(ctx context.Context, result core.ConversionResult) (string, error) {
	extension := filepath.Ext(result.OutputPath)
	if extension == "" {
		extension = defaultAudioExtension
	}

	outputKey := fileutil.SanitizeFilename(w.voice.ModelName + "-" + uuid.NewString() + extension)

	err := w.store.UploadFile(ctx, outputKey, result.OutputPath)
	if err != nil {
		return "", fmt.Errorf("failed to upload converted audio for key '%s': %w", outputKey, err)
	}

	outputInfo, statErr := os.Stat(result.OutputPath)
	if statErr == nil {
		w.log.Info("Uploaded %s (%s)", outputKey, fileutil.FormatFileSize(outputInfo.Size()))
	}

	w.removeTempFile(result.OutputPath)

	return outputKey, nil
}

// publishReplyEvent marshals and responds with the VoiceConvertedEvent.
func (w *NatsWorker) publishReplyEvent(msg *nats.Msg, replyEvent *core.VoiceConvertedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*events.AudioChunkCreatedEvent, error) {
	var event events.AudioChunkCreatedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.AudioKey == "" {
		return nil, ErrAudioKeyEmpty
	}

	return &event, nil
}

func (w *NatsWorker) removeTempFile(path string) {
	removeErr := os.Remove(path)
	if removeErr != nil && !os.IsNotExist(removeErr) {
		w.log.Warn("Failed to remove temp file '%s': %v", path, removeErr)
	}
}
