package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUpstream         = errors.New("upstream unavailable")
	ErrWSDisconnect     = errors.New("websocket disconnected")
)
