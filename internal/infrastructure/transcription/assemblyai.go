// Package transcription turns the audio track of a media URL into text with AssemblyAI.
package transcription

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
)

// ErrNotConfigured is returned when no API key was supplied.
var ErrNotConfigured = errors.New("transcription not configured")

// AssemblyAITranscriber transcribes remote media through the AssemblyAI API.
type AssemblyAITranscriber struct {
	client  *assemblyai.Client
	timeout time.Duration
	logger  *logging.ChanneledLogger
}

// NewAssemblyAITranscriber returns a transcriber. An empty apiKey yields a
// transcriber whose Enabled reports false.
func NewAssemblyAITranscriber(apiKey string, timeout time.Duration, logger *logging.ChanneledLogger) *AssemblyAITranscriber {
	t := &AssemblyAITranscriber{timeout: timeout, logger: logger}
	if apiKey != "" {
		t.client = assemblyai.NewClient(apiKey)
	}
	return t
}

// Enabled reports whether an API key is configured.
func (t *AssemblyAITranscriber) Enabled() bool {
	return t != nil && t.client != nil
}

// Transcribe submits mediaURL and waits for the transcript text.
func (t *AssemblyAITranscriber) Transcribe(ctx context.Context, mediaURL string) (string, error) {
	if !t.Enabled() {
		return "", ErrNotConfigured
	}
	mediaURL = strings.TrimSpace(mediaURL)
	if mediaURL == "" {
		return "", apperrors.NewValidationError("media_url", "media URL is required")
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	t.logger.Analysis().Debug("Calling AssemblyAI transcription", "mediaUrl", mediaURL)

	transcript, err := t.client.Transcripts.TranscribeFromURL(ctx, mediaURL, nil)
	if err != nil {
		t.logger.Analysis().Error("AssemblyAI transcription failed", "error", err.Error(), "duration", time.Since(start))
		return "", &apperrors.UpstreamError{Op: "transcribe media", Err: err}
	}

	if transcript.Status == assemblyai.TranscriptStatusError {
		reason := "transcription failed"
		if transcript.Error != nil {
			reason = *transcript.Error
		}
		return "", &apperrors.UpstreamError{Op: "transcribe media", Err: errors.New(reason)}
	}

	text := ""
	if transcript.Text != nil {
		text = *transcript.Text
	}

	t.logger.Analysis().Info("AssemblyAI transcription completed", "chars", len(text), "duration", time.Since(start))
	return text, nil
}
