package model

import "errors"

// ErrUnknownEngine is returned when an engine name is not recognized.
var ErrUnknownEngine = errors.New("unknown engine")
