package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors: the caller fixes the request and retries.
	ErrValidation      = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Job lifecycle errors
	ErrExtraction = fmt.Errorf("extraction failed") // engine could not resolve the URL or its formats; may be transient
	ErrDownload   = fmt.Errorf("download failed")   // extraction succeeded but transfer or post-processing failed
	ErrNotReady   = fmt.Errorf("download not finished")
	ErrNotFound   = fmt.Errorf("not found")

	ErrEngineUnavailable = fmt.Errorf("fetch engine unavailable")
)
