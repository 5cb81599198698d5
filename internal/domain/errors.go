package domain

import "errors"

var (
	ErrInvalidSpec        = errors.New("invalid output spec")
	ErrRemoteGeneration   = errors.New("remote generation failed")
	ErrDecode             = errors.New("image decode failed")
	ErrEncode             = errors.New("image encode failed")
	ErrInvalidDimensions  = errors.New("invalid target dimensions")
	ErrSubmission         = errors.New("operation submission failed")
	ErrNoResourceProduced = errors.New("operation completed without a resource")
	ErrTransport          = errors.New("resource fetch failed")
	ErrPollLimit          = errors.New("poll attempt limit reached")
)
