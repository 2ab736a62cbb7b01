package alerts

import "errors"

// ErrSinkClosed is returned when publishing to a closed sink.
var ErrSinkClosed = errors.New("alert sink closed")
