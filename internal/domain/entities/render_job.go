package entities

// RenderJobStatus is the lifecycle state of a remote render job
type RenderJobStatus string

const (
	RenderJobStatusPending RenderJobStatus = "pending" // queued or still rendering
	RenderJobStatusDone    RenderJobStatus = "done"
	RenderJobStatusFailed  RenderJobStatus = "failed"
)

// RenderJob tracks an asynchronous render against the rendering service
type RenderJob struct {
	ID           string          `json:"id"`
	Status       RenderJobStatus `json:"status"`
	Phase        string          `json:"phase,omitempty"` // raw status reported by the render service
	ResultURL    string          `json:"result_url,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// IsTerminal reports whether the job has finished, successfully or not
func (j RenderJob) IsTerminal() bool {
	return j.Status == RenderJobStatusDone || j.Status == RenderJobStatusFailed
}

// RenderOutput selects the output format and resolution of a render
type RenderOutput struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
}
