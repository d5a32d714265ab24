package shotstack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/pkg/config"
)

// Render statuses reported by the Edit API
const (
	StatusQueued    = "queued"
	StatusFetching  = "fetching"
	StatusRendering = "rendering"
	StatusSaving    = "saving"
	StatusDone      = "done"
	StatusFailed    = "failed"
)

// Client talks to the Shotstack Edit API
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Shotstack client
func NewClient(cfg *config.ShotstackConfig, logger *zap.Logger) *Client {
	return &Client{
		apiKey: cfg.APIKey,
		apiURL: strings.TrimSuffix(cfg.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Edit is a render request
type Edit struct {
	Timeline EditTimeline `json:"timeline"`
	Output   Output       `json:"output"`
}

type EditTimeline struct {
	Soundtrack *Soundtrack `json:"soundtrack,omitempty"`
	Tracks     []Track     `json:"tracks"`
}

type Soundtrack struct {
	Src    string `json:"src"`
	Effect string `json:"effect,omitempty"`
}

type Track struct {
	Clips []Clip `json:"clips"`
}

type Clip struct {
	Asset  Asset   `json:"asset"`
	Start  float64 `json:"start"`
	Length float64 `json:"length"`
}

type Asset struct {
	Type string `json:"type"`
	Src  string `json:"src"`
}

type Output struct {
	Format     string `json:"format"`
	Resolution string `json:"resolution"`
}

// RenderResponse is the envelope returned by POST /render
type RenderResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Response struct {
		Message string `json:"message"`
		ID      string `json:"id"`
	} `json:"response"`
}

// RenderStatusResponse is the envelope returned by GET /render/{id}
type RenderStatusResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Response RenderStatus `json:"response"`
}

// RenderStatus describes one render
type RenderStatus struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	URL      string  `json:"url,omitempty"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// NewEdit lays the timeline out on a single video track
func NewEdit(timeline entities.Timeline, output entities.RenderOutput) Edit {
	clips := make([]Clip, 0, len(timeline.Assets))
	for _, a := range timeline.Assets {
		clips = append(clips, Clip{
			Asset:  Asset{Type: "video", Src: a.Clip.SourceURL},
			Start:  a.StartOffsetSeconds,
			Length: a.Clip.DurationSeconds,
		})
	}

	edit := Edit{
		Timeline: EditTimeline{Tracks: []Track{{Clips: clips}}},
		Output:   Output{Format: output.Format, Resolution: output.Resolution},
	}
	if timeline.Soundtrack != nil && timeline.Soundtrack.Src != "" {
		edit.Timeline.Soundtrack = &Soundtrack{
			Src:    timeline.Soundtrack.Src,
			Effect: timeline.Soundtrack.Effect,
		}
	}
	return edit
}

// PostRender queues an edit and returns the render id
func (c *Client) PostRender(ctx context.Context, edit Edit) (string, error) {
	body, err := json.Marshal(edit)
	if err != nil {
		return "", fmt.Errorf("failed to marshal edit: %w", err)
	}

	var resp RenderResponse
	if err := c.do(ctx, http.MethodPost, "/render", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Response.ID == "" {
		return "", fmt.Errorf("render not queued: %s", firstNonEmpty(resp.Response.Message, resp.Message))
	}

	if c.logger != nil {
		c.logger.Info("🎬 Render queued",
			zap.String("render_id", resp.Response.ID),
			zap.Int("clips", len(edit.Timeline.Tracks[0].Clips)),
		)
	}
	return resp.Response.ID, nil
}

// GetRender fetches the status of a render
func (c *Client) GetRender(ctx context.Context, id string) (*RenderStatus, error) {
	var resp RenderStatusResponse
	if err := c.do(ctx, http.MethodGet, "/render/"+id, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("render status unavailable: %s", resp.Message)
	}
	return &resp.Response, nil
}

// Submit implements the pipeline's renderer port
func (c *Client) Submit(ctx context.Context, timeline entities.Timeline, output entities.RenderOutput) (string, error) {
	return c.PostRender(ctx, NewEdit(timeline, output))
}

// Status implements the pipeline's renderer port
func (c *Client) Status(ctx context.Context, jobID string) (entities.RenderJob, error) {
	st, err := c.GetRender(ctx, jobID)
	if err != nil {
		return entities.RenderJob{}, err
	}

	job := entities.RenderJob{ID: jobID, Phase: st.Status}
	switch st.Status {
	case StatusDone:
		job.Status = entities.RenderJobStatusDone
		job.ResultURL = st.URL
	case StatusFailed:
		job.Status = entities.RenderJobStatusFailed
		job.ErrorMessage = st.Error
	default:
		job.Status = entities.RenderJobStatusPending
	}
	return job, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var envelope struct {
			Message  string `json:"message"`
			Response struct {
				Error string `json:"error"`
			} `json:"response"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &envelope) == nil {
			msg = firstNonEmpty(envelope.Response.Error, envelope.Message, msg)
		}
		return fmt.Errorf("shotstack returned status %d: %s", resp.StatusCode, msg)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
