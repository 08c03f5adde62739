package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound       = errors.New("campaign not found")
	ErrInvalidInput   = errors.New("invalid campaign input")
	ErrNotProvisioned = errors.New("campaign has not been created remotely")
	ErrTerminal       = errors.New("campaign is in a terminal state")
)
