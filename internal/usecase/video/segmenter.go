package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/domain/entities"
	usecaseErrors "github.com/visually/visually-api/internal/usecase/errors"
)

const (
	// ShortSentenceThreshold is the duration (seconds) under which a sentence
	// is merged with its neighbour.
	ShortSentenceThreshold = 5.0

	sentenceSeparator = ". "
)

// Segmenter turns recognition events into timed sentences.
// It is not safe for concurrent use.
type Segmenter struct {
	logger    *zap.Logger
	text      strings.Builder
	sentences []entities.Sentence
}

// NewSegmenter creates an empty segmenter
func NewSegmenter(logger *zap.Logger) *Segmenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Segmenter{logger: logger}
}

// AppendEvent folds one recognition event into the sentence list
func (s *Segmenter) AppendEvent(event entities.RecognitionEvent) {
	for ri, result := range event.Results {
		lastInEvent := ri == len(event.Results)-1

		for _, alt := range result.Alternatives {
			if len(alt.Timestamps) == 0 {
				s.logger.Debug("skipping alternative",
					zap.String("transcript", alt.Transcript),
					zap.Error(entities.ErrEmptyTimestamps),
				)
				continue
			}

			duration := alt.Timestamps[len(alt.Timestamps)-1].End - alt.Timestamps[0].Start
			if len(s.sentences) == 0 {
				// The first sentence covers the audio from its very beginning
				duration = alt.Timestamps[len(alt.Timestamps)-1].End
			}
			if duration < 0 {
				duration = 0
			}

			transcript := strings.TrimSpace(alt.Transcript) + sentenceSeparator
			s.text.WriteString(transcript)

			n := len(s.sentences)
			if n > 0 && (s.sentences[n-1].Duration < ShortSentenceThreshold ||
				(lastInEvent && duration < ShortSentenceThreshold)) {
				prev := &s.sentences[n-1]
				prev.Transcript += transcript
				prev.Duration += duration
				prev.Timestamps = append(prev.Timestamps, alt.Timestamps...)
				continue
			}

			s.sentences = append(s.sentences, entities.Sentence{
				Transcript: transcript,
				Duration:   duration,
				Timestamps: append([]entities.Timestamp(nil), alt.Timestamps...),
			})
		}
	}
}

// Finalize closes the transcription once the total audio duration is known.
// The last sentence is stretched to the end of the audio so trailing footage
// fills the whole clip.
func (s *Segmenter) Finalize(totalAudioDuration float64) entities.Transcription {
	sentences := make([]entities.Sentence, len(s.sentences))
	for i, sentence := range s.sentences {
		sentence.Timestamps = append([]entities.Timestamp(nil), sentence.Timestamps...)
		sentences[i] = sentence
	}

	if n := len(sentences); n > 0 && totalAudioDuration > 0 {
		last := &sentences[n-1]
		if n == 1 {
			last.Duration = totalAudioDuration
		} else {
			last.Duration = totalAudioDuration - last.Timestamps[0].End
		}
		if last.Duration < 0 {
			last.Duration = 0
		}
	}

	return entities.Transcription{
		Text:      s.text.String(),
		Sentences: sentences,
		Statistics: entities.Statistics{
			SentencesCount:       len(sentences),
			AudioDurationSeconds: totalAudioDuration,
		},
	}
}

// Segment drains a transcription stream through a new Segmenter
func Segment(ctx context.Context, stream TranscriptionStream, logger *zap.Logger) (entities.Transcription, error) {
	segmenter := NewSegmenter(logger)
	events := 0
	for {
		if err := ctx.Err(); err != nil {
			return entities.Transcription{}, err
		}
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return entities.Transcription{}, usecaseErrors.Upstream(usecaseErrors.ServiceTranscription,
				fmt.Errorf("receive recognition event: %w", err))
		}
		segmenter.AppendEvent(event)
		events++
	}

	transcription := segmenter.Finalize(stream.AudioDuration())
	segmenter.logger.Info("transcription closed",
		zap.Int("events", events),
		zap.Int("sentences", transcription.Statistics.SentencesCount),
		zap.Float64("audio_duration", transcription.Statistics.AudioDurationSeconds),
	)
	return transcription, nil
}
