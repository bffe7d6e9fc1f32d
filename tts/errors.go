package tts

import (
	"errors"
	"fmt"
	"time"
)

// Common errors for the speech engine.
var (
	// Synthesis errors
	ErrNothingToVoice  = errors.New("nothing to voice")
	ErrSynthesisFailed = errors.New("audio synthesis failed")
	ErrRateLimited     = errors.New("synthesis rate limit wait aborted")

	// Playback errors
	ErrPlayerNotInitialized = errors.New("audio player is not initialized")
	ErrInvalidAudioFormat   = errors.New("invalid audio format")
	ErrNothingToPlay        = errors.New("no audio to play")

	// Segmentation errors
	ErrSourceAborted = errors.New("text source terminated uncleanly")

	// Scheduling errors
	ErrIntentNotFound  = errors.New("intent not found")
	ErrPipelineClosed  = errors.New("pipeline has been closed")
	ErrStateTransition = errors.New("invalid state transition")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// General errors
	ErrCanceled = errors.New("operation was canceled")
)

// ErrorCode classifies a TTSError.
type ErrorCode string

const (
	CodeSynthesisFailure    ErrorCode = "SYNTHESIS_FAILURE"
	CodePlaybackFailure     ErrorCode = "PLAYBACK_FAILURE"
	CodeSegmentationFailure ErrorCode = "SEGMENTATION_FAILURE"
	CodeInvalidConfig       ErrorCode = "INVALID_CONFIG"
	CodeCanceled            ErrorCode = "CANCELED"
)

// ErrorSeverity represents the severity of an error.
type ErrorSeverity int

const (
	// SeverityInfo is for informational messages.
	SeverityInfo ErrorSeverity = iota
	// SeverityWarning is for warnings that don't prevent operation.
	SeverityWarning
	// SeverityError is for errors that prevent normal operation.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// TTSError provides detailed error information.
type TTSError struct {
	Code      ErrorCode              // Machine readable classification
	Err       error                  // The underlying error
	Component string                 // Component that generated the error
	Action    string                 // Action being performed when error occurred
	Severity  ErrorSeverity          // Severity of the error
	Timestamp int64                  // Unix timestamp when error occurred
	Context   map[string]interface{} // Additional context
}

// Error implements the error interface.
func (e *TTSError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s %s", e.Code, e.Component, e.Action)
	}
	if e.Component == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Code, e.Component, e.Action, e.Err)
}

// Unwrap returns the underlying error.
func (e *TTSError) Unwrap() error {
	return e.Err
}

// Is matches another *TTSError by code.
func (e *TTSError) Is(target error) bool {
	t, ok := target.(*TTSError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Err == nil
}

// IsRecoverable reports whether the owning intent can continue past the error.
func (e *TTSError) IsRecoverable() bool {
	switch e.Code {
	case CodeInvalidConfig, CodeCanceled:
		return false
	}
	return e.Severity < SeverityCritical
}

// NewTTSError creates a new TTS error with context.
func NewTTSError(code ErrorCode, err error, component, action string) *TTSError {
	return &TTSError{
		Code:      code,
		Err:       err,
		Component: component,
		Action:    action,
		Severity:  SeverityError,
		Timestamp: time.Now().Unix(),
		Context:   make(map[string]interface{}),
	}
}

// WithSeverity sets the error severity.
func (e *TTSError) WithSeverity(severity ErrorSeverity) *TTSError {
	e.Severity = severity
	return e
}

// WithContext adds context to the error.
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// CodeOf returns the code of the first TTSError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var te *TTSError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
