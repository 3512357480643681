package services

import "errors"

// Dashboard service errors
var (
	// ErrNoDataset means no register has been loaded yet, neither from
	// an upload nor from the fallback file.
	ErrNoDataset = errors.New("no dataset loaded")

	// ErrUnknownField means a caller asked to aggregate or filter on a
	// column that is not one of the filterable fields.
	ErrUnknownField = errors.New("unknown field")

	ErrInvalidInput = errors.New("invalid input")
)
