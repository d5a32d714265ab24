package video

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/visually/visually-api/internal/domain/entities"
	usecaseErrors "github.com/visually/visually-api/internal/usecase/errors"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSegmenter_MergesShortSentences(t *testing.T) {
	s := NewSegmenter(zaptest.NewLogger(t))
	s.AppendEvent(event(alt("hello world ", ts("hello", 0.1, 1), ts("world", 1, 2))))
	s.AppendEvent(event(alt("next thing", ts("next", 3, 4), ts("thing", 4, 6))))

	tr := s.Finalize(0)
	if len(tr.Sentences) != 1 {
		t.Fatalf("expected 1 merged sentence, got %d", len(tr.Sentences))
	}
	got := tr.Sentences[0]
	if got.Transcript != "hello world. next thing. " {
		t.Errorf("transcript = %q", got.Transcript)
	}
	// first sentence counts from audio start (2s), the merged fragment adds 6-3
	if !almostEqual(got.Duration, 5) {
		t.Errorf("duration = %v, want 5", got.Duration)
	}
	if len(got.Timestamps) != 4 {
		t.Errorf("timestamps = %d, want 4", len(got.Timestamps))
	}
	if tr.Text != "hello world. next thing. " {
		t.Errorf("text = %q", tr.Text)
	}
}

func TestSegmenter_KeepsLongSentencesAndMergesShortTail(t *testing.T) {
	s := NewSegmenter(zaptest.NewLogger(t))
	s.AppendEvent(event(alt("a long opening", ts("a", 0, 1), ts("opening", 5, 6))))
	s.AppendEvent(event(
		alt("a second long one", ts("a", 6, 7), ts("one", 11, 12)),
		alt("tail", ts("tail", 12, 14)),
	))

	tr := s.Finalize(25)
	if len(tr.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(tr.Sentences))
	}
	if !almostEqual(tr.Sentences[0].Duration, 6) {
		t.Errorf("first duration = %v, want 6", tr.Sentences[0].Duration)
	}
	if tr.Sentences[1].Transcript != "a second long one. tail. " {
		t.Errorf("second transcript = %q", tr.Sentences[1].Transcript)
	}
	// the last sentence runs from the end of its first word to the end of the audio
	if !almostEqual(tr.Sentences[1].Duration, 25-7) {
		t.Errorf("last duration = %v, want 18", tr.Sentences[1].Duration)
	}
	if tr.Statistics.SentencesCount != 2 || tr.Statistics.AudioDurationSeconds != 25 {
		t.Errorf("statistics = %+v", tr.Statistics)
	}
}

func TestSegmenter_SingleSentenceCoversWholeAudio(t *testing.T) {
	s := NewSegmenter(nil)
	s.AppendEvent(event(alt("a forest at dawn", ts("a", 0.3, 0.5), ts("dawn", 1.9, 2.6))))

	tr := s.Finalize(8)
	if len(tr.Sentences) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(tr.Sentences))
	}
	if !almostEqual(tr.Sentences[0].Duration, 8) {
		t.Errorf("duration = %v, want 8", tr.Sentences[0].Duration)
	}
}

func TestSegmenter_SkipsEmptyTimestamps(t *testing.T) {
	s := NewSegmenter(zaptest.NewLogger(t))
	s.AppendEvent(event(alt("ghost")))
	s.AppendEvent(event(alt("real words", ts("real", 0, 1), ts("words", 1, 6))))

	tr := s.Finalize(0)
	if len(tr.Sentences) != 1 {
		t.Fatalf("expected 1 sentence, got %d", len(tr.Sentences))
	}
	if tr.Sentences[0].Transcript != "real words. " {
		t.Errorf("transcript = %q", tr.Sentences[0].Transcript)
	}
}

func TestSegmenter_DurationsNeverNegative(t *testing.T) {
	s := NewSegmenter(zaptest.NewLogger(t))
	s.AppendEvent(event(alt("one", ts("one", 0, 6))))
	s.AppendEvent(event(alt("backwards", ts("backwards", 9, 7))))
	s.AppendEvent(event(alt("two", ts("two", 10, 16))))

	tr := s.Finalize(12) // shorter than the last word
	for i, sentence := range tr.Sentences {
		if sentence.Duration < 0 {
			t.Errorf("sentence %d has negative duration %v", i, sentence.Duration)
		}
	}
}

func TestSegmenter_FinalizeDoesNotMutate(t *testing.T) {
	s := NewSegmenter(nil)
	s.AppendEvent(event(alt("one", ts("one", 0, 6))))
	s.AppendEvent(event(alt("two", ts("two", 6, 12))))

	first := s.Finalize(20)
	second := s.Finalize(30)
	if almostEqual(first.Sentences[1].Duration, second.Sentences[1].Duration) {
		t.Errorf("finalize should compute from the unfinalized sentences")
	}
}

func TestSegment_DrainsStream(t *testing.T) {
	stream := &fakeStream{
		events:   []entities.RecognitionEvent{event(alt("hello", ts("hello", 0, 1)))},
		duration: 4,
	}
	tr, err := Segment(context.Background(), stream, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tr.Sentences) != 1 || !almostEqual(tr.Sentences[0].Duration, 4) {
		t.Errorf("unexpected transcription: %+v", tr)
	}
}

func TestSegment_StreamErrorIsUpstream(t *testing.T) {
	stream := &fakeStream{err: errBoom}
	_, err := Segment(context.Background(), stream, nil)
	if !usecaseErrors.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("expected the stream error to be preserved, got %v", err)
	}
}
