package video

// RenderRequest holds the form fields sent alongside the audio upload
type RenderRequest struct {
	Model string `form:"model" validate:"omitempty,max=100"`
	Async bool   `form:"async"`
}

// GetRunRequest identifies an asynchronous render run
type GetRunRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}
