package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core pipeline's fatal-error taxonomy. Each is
// wrapped in a PipelineError with %w so callers can still errors.Is/As
// through to the sentinel while getting a message with file/offset context.
var (
	ErrIO                = errors.New("io error")
	ErrParse             = errors.New("parse error")
	ErrTruncatedCodeword = errors.New("truncated codeword")
	ErrCorruptRun        = errors.New("corrupt run")
)

// NotFound and EndOfList are not errors: they are ordinary sentinel return
// values for operations whose caller is expected to check for them on every
// call (term lookup, list advancement). They are never wrapped in a
// PipelineError and never satisfy errors.Is against the ErrXxx values above.
var (
	NotFound  = errors.New("not found")
	EndOfList = errors.New("end of list")
)

// PipelineError is a fatal, unrecoverable error raised by the core pipeline
// (tokenizer, codec, builder, merger, listreader). Unlike NotFound/EndOfList
// it always indicates a bug, a corrupt file, or an environment failure.
type PipelineError struct {
	Err     error
	Message string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *PipelineError {
	return &PipelineError{Err: sentinel, Message: message}
}

func Newf(sentinel error, format string, args ...any) *PipelineError {
	return &PipelineError{Err: sentinel, Message: fmt.Sprintf(format, args...)}
}

// ExitCode maps a pipeline error to a process exit code for the CLI. Normal
// sentinel results (NotFound, EndOfList) are never passed here — callers
// handle those inline rather than propagating them as errors.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrIO):
		return 74 // EX_IOERR, sysexits.h
	case errors.Is(err, ErrParse), errors.Is(err, ErrTruncatedCodeword), errors.Is(err, ErrCorruptRun):
		return 65 // EX_DATAERR
	default:
		return 1
	}
}
