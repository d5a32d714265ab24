package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/internal/usecase/video"
	"github.com/visually/visually-api/pkg/config"
)

const (
	defaultTranscriptPollInterval = 3 * time.Second
	defaultTranscriptMaxWait      = 20 * time.Minute
)

// AssemblyAIClient transcribes audio through the AssemblyAI SDK.
// The finished transcript is replayed as one recognition event per sentence.
type AssemblyAIClient struct {
	sdk          *aai.Client
	languageCode string
	pollInterval time.Duration
	maxWait      time.Duration
	logger       *zap.Logger
}

// NewAssemblyAIClient creates an AssemblyAI transcriber. Extra SDK options
// (base URL, HTTP client) are passed through.
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig, logger *zap.Logger, opts ...aai.ClientOption) *AssemblyAIClient {
	lang := cfg.LanguageCode
	if lang == "" {
		lang = "en"
	}
	return &AssemblyAIClient{
		sdk:          aai.NewClientWithOptions(append([]aai.ClientOption{aai.WithAPIKey(cfg.APIKey)}, opts...)...),
		languageCode: lang,
		pollInterval: defaultTranscriptPollInterval,
		maxWait:      defaultTranscriptMaxWait,
		logger:       logger,
	}
}

// WithPolling overrides how often and how long a transcript is polled
func (c *AssemblyAIClient) WithPolling(interval, maxWait time.Duration) *AssemblyAIClient {
	c.pollInterval = interval
	c.maxWait = maxWait
	return c
}

// Transcribe uploads the audio, waits for the transcript and returns it as a stream
func (c *AssemblyAIClient) Transcribe(ctx context.Context, req video.TranscribeRequest) (video.TranscriptionStream, error) {
	uploadURL, err := c.sdk.Upload(ctx, req.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio: %w", err)
	}

	params := &aai.TranscriptOptionalParams{
		LanguageCode: aai.TranscriptLanguageCode(c.languageCode),
	}
	submitted, err := c.sdk.Transcripts.SubmitFromURL(ctx, uploadURL, params)
	if err != nil {
		return nil, fmt.Errorf("failed to submit transcript: %w", err)
	}
	transcriptID := aai.ToString(submitted.ID)

	if c.logger != nil {
		c.logger.Info("🎙️ Transcript submitted",
			zap.String("transcript_id", transcriptID),
			zap.String("language", c.languageCode),
		)
	}

	transcript, err := c.wait(ctx, transcriptID)
	if err != nil {
		return nil, err
	}

	var duration float64
	if transcript.AudioDuration != nil {
		duration = float64(*transcript.AudioDuration)
	}
	return &replayStream{events: sentenceEvents(transcript.Words), duration: duration}, nil
}

var errTranscriptPending = errors.New("transcript still processing")

func (c *AssemblyAIClient) wait(ctx context.Context, transcriptID string) (aai.Transcript, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()

	var transcript aai.Transcript
	operation := func() error {
		t, err := c.sdk.Transcripts.Get(waitCtx, transcriptID)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to get transcript: %w", err))
		}
		switch t.Status {
		case aai.TranscriptStatusCompleted:
			transcript = t
			return nil
		case aai.TranscriptStatusError:
			msg := "transcription failed"
			if t.Error != nil {
				msg = *t.Error
			}
			return backoff.Permanent(fmt.Errorf("assemblyai error: %s", msg))
		default:
			return errTranscriptPending
		}
	}

	notify := func(_ error, wait time.Duration) {
		if c.logger != nil {
			c.logger.Debug("⏳ Transcript still processing",
				zap.String("transcript_id", transcriptID),
				zap.Duration("next_check", wait),
			)
		}
	}
	b := backoff.WithContext(backoff.NewConstantBackOff(c.pollInterval), waitCtx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		if errors.Is(err, errTranscriptPending) || (errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil) {
			return aai.Transcript{}, fmt.Errorf("transcript %s not ready after %s", transcriptID, c.maxWait)
		}
		return aai.Transcript{}, err
	}
	return transcript, nil
}

// sentenceEvents groups words into one event per sentence, closing a
// sentence at terminal punctuation. Word times arrive in milliseconds.
func sentenceEvents(words []aai.TranscriptWord) []entities.RecognitionEvent {
	var (
		events     []entities.RecognitionEvent
		text       []string
		stamps     []entities.Timestamp
		confidence float64
	)
	flush := func() {
		if len(stamps) == 0 {
			return
		}
		events = append(events, entities.RecognitionEvent{
			ResultIndex: len(events),
			Results: []entities.RecognitionResult{{
				Final: true,
				Alternatives: []entities.RecognitionAlternative{{
					Transcript: strings.Join(text, " "),
					Confidence: confidence / float64(len(stamps)),
					Timestamps: stamps,
				}},
			}},
		})
		text, stamps, confidence = nil, nil, 0
	}

	for _, w := range words {
		word := aai.ToString(w.Text)
		if word == "" || w.Start == nil || w.End == nil {
			continue
		}
		text = append(text, word)
		stamps = append(stamps, entities.Timestamp{
			Word:  strings.TrimRight(word, ".,!?;:"),
			Start: float64(*w.Start) / 1000,
			End:   float64(*w.End) / 1000,
		})
		if w.Confidence != nil {
			confidence += *w.Confidence
		}
		if strings.ContainsAny(word[len(word)-1:], ".!?") {
			flush()
		}
	}
	flush()
	return events
}

// replayStream serves pre-computed events
type replayStream struct {
	events   []entities.RecognitionEvent
	next     int
	duration float64
}

func (s *replayStream) Recv() (entities.RecognitionEvent, error) {
	if s.next >= len(s.events) {
		return entities.RecognitionEvent{}, io.EOF
	}
	event := s.events[s.next]
	s.next++
	return event, nil
}

func (s *replayStream) AudioDuration() float64 { return s.duration }

func (s *replayStream) Close() error { return nil }
