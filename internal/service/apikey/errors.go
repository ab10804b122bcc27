package apikey

import "errors"

// ErrInvalidKey is returned when a presented key matches no issued key.
var ErrInvalidKey = errors.New("invalid api key")
