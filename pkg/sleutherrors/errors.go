// Package sleutherrors provides structured error handling for datasleuth with
// error categorization, key-value context, and stack capture.
//
// Analytical stages never use errors for control flow: a stage that cannot run
// reports a reason in its result. Errors from this package mark the boundaries
// where a run genuinely cannot proceed (unreadable input, undecodable bytes) or
// where a stage threw unexpectedly and was downgraded to a disabled section.
package sleutherrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType categorizes an error, mapping directly onto the failure taxonomy
// reported in the analysis response.
type ErrorType string

const (
	// ErrorTypeInput marks a missing or unreadable input file, or an input
	// whose structure is unsupported. Fatal to the run.
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeDecode marks bytes that no encoding in the fallback ladder
	// could decode into a usable dataset. Fatal to the run.
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeStage marks a single analytical stage failure. Caught locally;
	// the stage degrades to a disabled section and the run continues.
	ErrorTypeStage ErrorType = "stage"
	// ErrorTypeConfig marks invalid configuration.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal marks anything unexpected caught at the outermost
	// boundary and converted to a safe failure response.
	ErrorTypeInternal ErrorType = "internal"
)

// Error is a structured error with a category, optional cause, key-value
// details, and the call stack at the point of creation.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is a single frame in the captured call stack.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key-value detail and returns the error for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given type, capturing the call stack.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with a type and message, preserving the
// original as the cause. Returns nil when err is nil. If err is already a
// structured Error its original stack is kept.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType reports whether err is a structured Error of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// IsFatal reports whether err terminates the whole run rather than a single
// stage. Input and decode errors are fatal; stage errors are not.
func IsFatal(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Type {
	case ErrorTypeInput, ErrorTypeDecode, ErrorTypeConfig, ErrorTypeInternal:
		return true
	case ErrorTypeStage:
		return false
	default:
		return false
	}
}

func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}
	return frames
}
