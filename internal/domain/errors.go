package domain

import "errors"

var (
	ErrMissingCredential = errors.New("youtube api key is not configured")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrUploadsNotFound   = errors.New("uploads playlist not found")
	ErrSyncInProgress    = errors.New("sync already in progress")
	ErrInvalidQuery      = errors.New("invalid search query")
	ErrInvalidScope      = errors.New("invalid cache scope")
)
