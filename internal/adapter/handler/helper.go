package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/visually/visually-api/errors"
	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/internal/usecase/video"
	usecaseErrors "github.com/visually/visually-api/internal/usecase/errors"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized 200 response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return HandleSuccessStatus(logger, c, http.StatusOK, data)
}

// HandleSuccessStatus writes a standardized success response with the given status
func HandleSuccessStatus(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := toAppError(err)

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Stringer("app_code", appErr.Code),
			zap.Error(err),
		)
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
	}

	return c.JSON(appErr.HTTPCode, body)
}

// toAppError classifies pipeline errors for the HTTP boundary
func toAppError(err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var upstream *usecaseErrors.UpstreamError
	switch {
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		return errors.ErrPipelineInvalidInput(err)
	case stdErrors.Is(err, usecaseErrors.ErrRenderTimeout):
		return errors.ErrRenderTimeout(err)
	case stdErrors.Is(err, usecaseErrors.ErrRenderFailed):
		return errors.ErrRenderFailed(err)
	case stdErrors.As(err, &upstream):
		return errors.ErrUpstream(upstream.Service, err)
	case stdErrors.Is(err, entities.ErrRunNotFound):
		return errors.ErrNotFound("Render run")
	case stdErrors.Is(err, video.ErrShuttingDown):
		return errors.ErrUnavailable(err)
	default:
		return errors.ErrInternal(err)
	}
}
