package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeInvalidArgument   ErrorType = "invalid_argument"
	ErrorTypeUnsupportedRaster ErrorType = "unsupported_raster"
	ErrorTypeNetwork           ErrorType = "network"
	ErrorTypeDetector          ErrorType = "detector"
	ErrorTypeAggregation       ErrorType = "aggregation"
	ErrorTypeUnauthorized      ErrorType = "unauthorized"
	ErrorTypeInternal          ErrorType = "internal"
)

// Stage identifies which pipeline stage produced an error.
type Stage string

const (
	StageLoad      Stage = "load"
	StageNormalize Stage = "normalize"
	StageTile      Stage = "tile"
	StageDetect    Stage = "detect"
	StageAggregate Stage = "aggregate"
)

// AppError represents a structured application error. ChipIndex is nil
// unless the error is tied to a specific chip.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Stage      Stage     `json:"stage,omitempty"`
	ChipIndex  *int      `json:"chip_index,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Stage != "" {
		msg = fmt.Sprintf("%s [stage=%s]", msg, e.Stage)
	}
	if e.ChipIndex != nil {
		msg = fmt.Sprintf("%s [chip=%d]", msg, *e.ChipIndex)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithStage tags the error with the pipeline stage that produced it.
func (e *AppError) WithStage(stage Stage) *AppError {
	e.Stage = stage
	return e
}

// NewInvalidArgumentError creates an error for rejected caller input
func NewInvalidArgumentError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidArgument,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewUnsupportedRasterError creates an error for rasters the pipeline
// cannot normalize (band count outside {1,3,4})
func NewUnsupportedRasterError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeUnsupportedRaster,
		Message:    message,
		Stage:      StageNormalize,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		Stage:      StageLoad,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewDetectorError wraps a failure reported by the external detector for
// one chip. The chip index travels with the error so callers can see
// which tile aborted the run.
func NewDetectorError(chipIndex int, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDetector,
		Message:    "detector call failed",
		Stage:      StageDetect,
		ChipIndex:  &chipIndex,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewAggregationError reports an internal invariant violation during
// result aggregation. These indicate a bug, not bad input.
func NewAggregationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAggregation,
		Message:    message,
		Stage:      StageAggregate,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
