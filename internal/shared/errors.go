package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrConfiguration = fmt.Errorf("configuration error")

	// Path resolution errors
	ErrInvalidPath         = fmt.Errorf("invalid path")
	ErrEmptyPath           = fmt.Errorf("empty path")
	ErrMissingParameters   = fmt.Errorf("missing parameters")
	ErrUnsupportedAutoType = fmt.Errorf("unsupported AUTO type")
	ErrDirectoryCreate     = fmt.Errorf("failed to create directory")

	// Track generation errors
	ErrSchema           = fmt.Errorf("spreadsheet schema error")
	ErrUnknownTrackType = fmt.Errorf("unknown track type")
	ErrHandlerNotFound  = fmt.Errorf("no handler registered")
	ErrDuplicateHandler = fmt.Errorf("handler already registered")
	ErrValidation       = fmt.Errorf("validation failed")
	ErrTrackNotFound    = fmt.Errorf("track not found")

	// Spreadsheet collaborator errors
	ErrDownload = fmt.Errorf("spreadsheet download failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
