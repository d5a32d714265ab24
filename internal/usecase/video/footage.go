package video

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/domain/entities"
	usecaseErrors "github.com/visually/visually-api/internal/usecase/errors"
)

// DefaultFootagePageSize is how many results are requested per search term
const DefaultFootagePageSize = 10

// FootageMatcher selects clips covering each sentence's duration
type FootageMatcher struct {
	searcher FootageSearcher
	perPage  int
	logger   *zap.Logger
}

// NewFootageMatcher creates a matcher backed by searcher
func NewFootageMatcher(searcher FootageSearcher, perPage int, logger *zap.Logger) *FootageMatcher {
	if perPage <= 0 {
		perPage = DefaultFootagePageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FootageMatcher{searcher: searcher, perPage: perPage, logger: logger}
}

// SelectAll matches footage for every sentence, one at a time and in order
func (m *FootageMatcher) SelectAll(ctx context.Context, sentences []entities.Sentence) ([]entities.Sentence, error) {
	if len(sentences) == 0 {
		return nil, nil
	}

	out := make([]entities.Sentence, 0, len(sentences))
	for i, sentence := range sentences {
		matched, err := m.SelectFootage(ctx, sentence)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}
		out = append(out, matched)
		if matched.Analysis.FetchedVideoFor == nil {
			m.logger.Debug("sentence has no screen time, skipping", zap.Int("sentence_index", i))
			continue
		}
		m.logger.Debug("footage selected",
			zap.Int("sentence_index", i),
			zap.String("term", matched.Analysis.FetchedVideoFor.Text),
			zap.Int("clips", len(matched.Videos)),
			zap.Float64("duration", matched.Duration),
		)
	}
	return out, nil
}

// SelectFootage walks the ranked terms in order, accumulating clips until
// their total duration covers the sentence. The last clip is trimmed so the
// sum equals the sentence duration exactly. A sentence with no duration gets
// no clips.
func (m *FootageMatcher) SelectFootage(ctx context.Context, sentence entities.Sentence) (entities.Sentence, error) {
	if sentence.Duration <= 0 {
		return sentence, nil
	}
	terms := sentence.Analysis.Rank
	if len(terms) == 0 {
		return sentence, usecaseErrors.InvalidInput("no relevant terms to search footage for %q", abbreviate(sentence.Transcript))
	}

	var (
		selected []entities.Clip
		covered  float64
		seen     = make(map[string]struct{})
	)

	for i := range terms {
		term := terms[i]
		query := strings.TrimSpace(term.Text)
		if query == "" {
			return sentence, usecaseErrors.InvalidInput("ranked term %d has an empty search query", i)
		}

		clips, err := m.searcher.Search(ctx, query, m.perPage)
		if err != nil {
			return sentence, usecaseErrors.Upstream(usecaseErrors.ServiceFootage,
				fmt.Errorf("search %q: %w", query, err))
		}
		if len(clips) == 0 {
			m.logger.Debug("no footage for term, trying next", zap.String("term", query))
			continue
		}

		for _, clip := range clips {
			if clip.DurationSeconds <= 0 || clip.SourceURL == "" {
				continue
			}
			if _, dup := seen[clip.SourceURL]; dup {
				continue
			}
			seen[clip.SourceURL] = struct{}{}

			selected = append(selected, clip)
			covered += clip.DurationSeconds
			if covered >= sentence.Duration {
				selected[len(selected)-1].DurationSeconds -= covered - sentence.Duration

				sentence.Videos = selected
				sentence.Analysis.FetchedVideoFor = &term
				return sentence, nil
			}
		}

		m.logger.Debug("footage for term does not cover sentence, trying next",
			zap.String("term", query),
			zap.Float64("covered", covered),
			zap.Float64("duration", sentence.Duration),
		)
	}

	return sentence, usecaseErrors.InvalidInput("not enough footage for %q: covered %.2fs of %.2fs",
		abbreviate(sentence.Transcript), covered, sentence.Duration)
}

func abbreviate(s string) string {
	const max = 60
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
