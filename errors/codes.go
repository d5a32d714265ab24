package errors

// ErrorCode identifies an application error in API responses
type ErrorCode int32

const (
	ErrorCode_HTTP_OK          ErrorCode = 0
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1003
	ErrorCode_UNAVAILABLE      ErrorCode = 1004

	// Upload
	ErrorCode_UPLOAD_MISSING_FILE      ErrorCode = 2000
	ErrorCode_UPLOAD_UNSUPPORTED_MEDIA ErrorCode = 2001
	ErrorCode_UPLOAD_STAGING_FAILED    ErrorCode = 2002
	ErrorCode_UPLOAD_TOO_LARGE         ErrorCode = 2003

	// Pipeline
	ErrorCode_PIPELINE_INVALID_INPUT  ErrorCode = 3000
	ErrorCode_PIPELINE_UPSTREAM       ErrorCode = 3001
	ErrorCode_PIPELINE_RENDER_FAILED  ErrorCode = 3002
	ErrorCode_PIPELINE_RENDER_TIMEOUT ErrorCode = 3003
	ErrorCode_RUN_NOT_FOUND           ErrorCode = 3004
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                  "HTTP_OK",
	ErrorCode_INTERNAL:                 "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:         "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                "NOT_FOUND",
	ErrorCode_INVALID_PAYLOAD:          "INVALID_PAYLOAD",
	ErrorCode_UNAVAILABLE:              "UNAVAILABLE",
	ErrorCode_UPLOAD_MISSING_FILE:      "UPLOAD_MISSING_FILE",
	ErrorCode_UPLOAD_UNSUPPORTED_MEDIA: "UPLOAD_UNSUPPORTED_MEDIA",
	ErrorCode_UPLOAD_STAGING_FAILED:    "UPLOAD_STAGING_FAILED",
	ErrorCode_UPLOAD_TOO_LARGE:         "UPLOAD_TOO_LARGE",
	ErrorCode_PIPELINE_INVALID_INPUT:   "PIPELINE_INVALID_INPUT",
	ErrorCode_PIPELINE_UPSTREAM:        "PIPELINE_UPSTREAM",
	ErrorCode_PIPELINE_RENDER_FAILED:   "PIPELINE_RENDER_FAILED",
	ErrorCode_PIPELINE_RENDER_TIMEOUT:  "PIPELINE_RENDER_TIMEOUT",
	ErrorCode_RUN_NOT_FOUND:            "RUN_NOT_FOUND",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON bodies
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
