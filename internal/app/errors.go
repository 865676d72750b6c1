package app

import "errors"

// Sentinel kinds for submission errors.
var (
	ErrNoForm           = errors.New("no form to bind")
	ErrNotBound         = errors.New("handler has no bound form")
	ErrInvalidEndpoint  = errors.New("invalid submit endpoint")
	ErrTransport        = errors.New("submission request failed")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)
