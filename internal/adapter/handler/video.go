package handler

import (
	stdErrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/visually/visually-api/errors"
	videoDTO "github.com/visually/visually-api/internal/adapter/dto/video"
	"github.com/visually/visually-api/internal/adapter/presenter"
	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/internal/usecase/video"
)

const (
	uploadField       = "video"
	acceptedAudioType = "audio/mpeg"
)

// Video handles audio-to-video render endpoints
type Video struct {
	service        video.Service
	uploadDir      string
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewVideo creates a new video handler. Uploads are staged under uploadDir;
// a non-positive maxUploadBytes disables the size check.
func NewVideo(service video.Service, uploadDir string, maxUploadBytes int64, logger *zap.Logger) *Video {
	return &Video{
		service:        service,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Render turns an uploaded narration into a video.
// POST /v1/videos/render (multipart: video=<audio/mpeg file>, model, async)
func (h *Video) Render(c echo.Context) error {
	var req videoDTO.RenderRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	file, err := c.FormFile(uploadField)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrMissingFile(uploadField))
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		return HandleError(h.logger, c, errors.ErrUploadTooLarge(file.Size, h.maxUploadBytes))
	}
	contentType := file.Header.Get(echo.HeaderContentType)
	if mediaType, _, err := mime.ParseMediaType(contentType); err != nil || mediaType != acceptedAudioType {
		return HandleError(h.logger, c, errors.ErrUnsupportedMedia(contentType))
	}

	src, err := file.Open()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStagingFailed(err))
	}
	defer src.Close()

	path, err := h.stage(src, file.Filename)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStagingFailed(err))
	}

	if h.logger != nil {
		h.logger.Info("📼 Audio staged",
			zap.String("path", path),
			zap.Int64("size", file.Size),
			zap.Bool("async", req.Async),
		)
	}

	renderReq := video.RenderRequest{
		AudioPath:   path,
		AudioName:   file.Filename,
		ContentType: acceptedAudioType,
		Model:       req.Model,
	}

	if req.Async {
		run, err := h.service.StartRender(c.Request().Context(), renderReq)
		if err != nil {
			return HandleError(h.logger, c, err)
		}
		return HandleSuccessStatus(h.logger, c, http.StatusAccepted, presenter.ToRunResponse(run))
	}

	result, err := h.service.Render(c.Request().Context(), renderReq)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRenderResponse(result))
}

// GetRun returns the state of an asynchronous render run.
// GET /v1/videos/render/:id
func (h *Video) GetRun(c echo.Context) error {
	var req videoDTO.GetRunRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(err))
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid run id"))
	}

	id := uuid.MustParse(req.ID)
	run, err := h.service.GetRun(c.Request().Context(), id)
	if err != nil {
		if stdErrors.Is(err, entities.ErrRunNotFound) {
			return HandleError(h.logger, c, errors.ErrRunNotFound(req.ID))
		}
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRunResponse(run))
}

// stage copies the upload to <uploadDir>/<RFC3339 time>-<name>
func (h *Video) stage(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := strings.ReplaceAll(filepath.Base(filename), string(filepath.Separator), "_")
	if name == "." || name == "" {
		name = "audio.mp3"
	}
	path := filepath.Join(h.uploadDir, time.Now().UTC().Format(time.RFC3339)+"-"+name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if stdErrors.Is(err, os.ErrExist) {
		// same name uploaded within the same second
		path = strings.TrimSuffix(path, filepath.Ext(path)) + "-" + uuid.NewString()[:8] + filepath.Ext(path)
		dst, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close staged file: %w", err)
	}
	return path, nil
}
