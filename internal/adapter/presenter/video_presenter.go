package presenter

import (
	videoDTO "github.com/visually/visually-api/internal/adapter/dto/video"
	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/internal/usecase/video"
)

// ToRenderResponse converts a finished pipeline result to RenderResponse DTO
func ToRenderResponse(r *video.Result) *videoDTO.RenderResponse {
	if r == nil {
		return nil
	}
	return &videoDTO.RenderResponse{
		URL:              r.VideoURL,
		SentencesCount:   r.Transcription.Statistics.SentencesCount,
		AudioDuration:    r.Transcription.Statistics.AudioDurationSeconds,
		TimelineDuration: r.Timeline.TotalDuration,
		ClipsCount:       len(r.Timeline.Assets),
		ProcessingTimeMs: r.ProcessingTime.Milliseconds(),
	}
}

// ToRunResponse converts a RenderRun entity to RunResponse DTO
func ToRunResponse(run *entities.RenderRun) *videoDTO.RunResponse {
	if run == nil {
		return nil
	}

	response := &videoDTO.RunResponse{
		ID:          run.ID.String(),
		Status:      string(run.Status),
		AudioName:   run.AudioName,
		Model:       run.Model,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		CreatedAt:   run.CreatedAt,
		UpdatedAt:   run.UpdatedAt,
	}

	// Set optional fields
	if run.RenderJobID != nil {
		response.RenderJobID = *run.RenderJobID
	}
	if run.ResultURL != nil {
		response.URL = *run.ResultURL
	}
	if run.LastError != nil {
		response.Error = *run.LastError
	}
	if run.Status == entities.RenderRunStatusCompleted {
		m := run.Metadata.Data()
		response.Metadata = &videoDTO.RunMetadata{
			SentencesCount:   m.SentencesCount,
			AudioDuration:    m.AudioDurationSeconds,
			TimelineDuration: m.TimelineDuration,
			ClipsCount:       m.ClipsCount,
			SearchTerms:      m.SearchTerms,
			ProcessingTimeMs: m.ProcessingTimeMs,
		}
	}

	return response
}
