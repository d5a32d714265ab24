package video

import "github.com/visually/visually-api/internal/domain/entities"

// DefaultSoundtrackEffect fades the narration out at the end of the video
const DefaultSoundtrackEffect = "fadeOut"

// Compose lays the selected clips of every sentence end to end on a single
// track. Each asset starts where the previous one ended; clips without a
// length are dropped.
func Compose(sentences []entities.Sentence, soundtrack *entities.Soundtrack) entities.Timeline {
	timeline := entities.Timeline{Assets: []entities.TimelineAsset{}}

	var offset float64
	for _, sentence := range sentences {
		for _, clip := range sentence.Videos {
			if clip.DurationSeconds <= 0 {
				continue
			}
			timeline.Assets = append(timeline.Assets, entities.TimelineAsset{
				Clip:               clip,
				StartOffsetSeconds: offset,
			})
			offset += clip.DurationSeconds
		}
	}
	timeline.TotalDuration = offset

	if soundtrack != nil && soundtrack.Src != "" {
		st := *soundtrack
		if st.Effect == "" {
			st.Effect = DefaultSoundtrackEffect
		}
		timeline.Soundtrack = &st
	}
	return timeline
}
