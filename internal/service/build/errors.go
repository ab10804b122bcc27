package build

import "errors"

// Sentinel errors for the build service layer.
var (
	ErrUnknownSource = errors.New("unknown source type")
	ErrNotFound      = errors.New("build not found")
)
