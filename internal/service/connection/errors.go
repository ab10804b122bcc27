package connection

import "errors"

// ErrNotConnected is returned when a user has no usable credential for the
// requested service.
var ErrNotConnected = errors.New("service not connected")
