package tts

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestErrorDefinitions tests that all error variables are properly defined.
func TestErrorDefinitions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNothingToVoice", ErrNothingToVoice, "nothing to voice"},
		{"ErrSynthesisFailed", ErrSynthesisFailed, "audio synthesis failed"},
		{"ErrRateLimited", ErrRateLimited, "synthesis rate limit wait aborted"},
		{"ErrPlayerNotInitialized", ErrPlayerNotInitialized, "audio player is not initialized"},
		{"ErrInvalidAudioFormat", ErrInvalidAudioFormat, "invalid audio format"},
		{"ErrNothingToPlay", ErrNothingToPlay, "no audio to play"},
		{"ErrSourceAborted", ErrSourceAborted, "text source terminated uncleanly"},
		{"ErrIntentNotFound", ErrIntentNotFound, "intent not found"},
		{"ErrPipelineClosed", ErrPipelineClosed, "pipeline has been closed"},
		{"ErrStateTransition", ErrStateTransition, "invalid state transition"},
		{"ErrInvalidConfig", ErrInvalidConfig, "invalid configuration"},
		{"ErrCanceled", ErrCanceled, "operation was canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("%s is nil", tt.name)
			}
			if tt.err.Error() != tt.msg {
				t.Errorf("%s.Error() = %q, want %q", tt.name, tt.err.Error(), tt.msg)
			}
		})
	}
}

// TestTTSError tests the TTSError type.
func TestTTSError(t *testing.T) {
	baseErr := errors.New("engine exploded")
	err := NewTTSError(CodeSynthesisFailure, baseErr, "pipeline", "synthesize")

	if err.Code != CodeSynthesisFailure {
		t.Errorf("Code = %v", err.Code)
	}
	if err.Severity != SeverityError {
		t.Errorf("Severity = %v, want SeverityError", err.Severity)
	}
	if err.Timestamp == 0 {
		t.Error("Timestamp should be set")
	}
	want := "SYNTHESIS_FAILURE: pipeline synthesize: engine exploded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, baseErr) {
		t.Error("TTSError should unwrap to the base error")
	}
}

func TestTTSErrorMatchesByCode(t *testing.T) {
	err := fmt.Errorf("segment 3: %w", NewTTSError(CodePlaybackFailure, errors.New("device lost"), "player", "play"))

	if !errors.Is(err, &TTSError{Code: CodePlaybackFailure}) {
		t.Error("should match a bare TTSError with the same code")
	}
	if errors.Is(err, &TTSError{Code: CodeSynthesisFailure}) {
		t.Error("should not match a different code")
	}
	if got := CodeOf(err); got != CodePlaybackFailure {
		t.Errorf("CodeOf() = %v", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %v, want empty", got)
	}
}

// TestTTSErrorWithSeverity tests severity modification.
func TestTTSErrorWithSeverity(t *testing.T) {
	err := NewTTSError(CodeSynthesisFailure, nil, "engine", "synthesize").WithSeverity(SeverityWarning)
	if err.Severity != SeverityWarning {
		t.Errorf("Severity = %v, want SeverityWarning", err.Severity)
	}
}

// TestTTSErrorWithContext tests adding context to errors.
func TestTTSErrorWithContext(t *testing.T) {
	err := NewTTSError(CodeSynthesisFailure, nil, "engine", "synthesize").
		WithContext("segment", "seg-1").
		WithContext("words", 4)

	if err.Context["segment"] != "seg-1" || err.Context["words"] != 4 {
		t.Errorf("Context = %v", err.Context)
	}

	bare := &TTSError{Code: CodeCanceled}
	bare.WithContext("reason", "user")
	if bare.Context["reason"] != "user" {
		t.Error("WithContext should allocate the map")
	}
}

// TestTTSErrorNilError tests TTSError with nil underlying error.
func TestTTSErrorNilError(t *testing.T) {
	err := NewTTSError(CodeInvalidConfig, nil, "config", "validate")
	if !strings.Contains(err.Error(), "config validate") {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Error("Unwrap() should be nil")
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name string
		err  *TTSError
		want bool
	}{
		{"synthesis", NewTTSError(CodeSynthesisFailure, nil, "", ""), true},
		{"playback", NewTTSError(CodePlaybackFailure, nil, "", ""), true},
		{"critical", NewTTSError(CodeSynthesisFailure, nil, "", "").WithSeverity(SeverityCritical), false},
		{"config", NewTTSError(CodeInvalidConfig, nil, "", ""), false},
		{"canceled", NewTTSError(CodeCanceled, nil, "", "").WithSeverity(SeverityInfo), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.IsRecoverable(); got != tt.want {
				t.Errorf("IsRecoverable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestErrorUniqueness tests that all errors are unique.
func TestErrorUniqueness(t *testing.T) {
	errs := []error{
		ErrNothingToVoice, ErrSynthesisFailed, ErrRateLimited,
		ErrPlayerNotInitialized, ErrInvalidAudioFormat, ErrNothingToPlay,
		ErrSourceAborted, ErrIntentNotFound, ErrPipelineClosed,
		ErrStateTransition, ErrInvalidConfig, ErrCanceled,
	}
	for i, a := range errs {
		for j, b := range errs {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v and %v should be distinct", a, b)
			}
		}
	}
}
