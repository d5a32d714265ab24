package entities

import "errors"

// Domain errors
var (
	ErrRunNotFound     = errors.New("render run not found")
	ErrEmptyTimestamps = errors.New("recognition alternative has no word timestamps")
)
