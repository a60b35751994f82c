// Package errors wraps the standard library errors with slog annotations
// and captured call stacks so that log lines point at the failure site.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// New re-exports the standard library constructor.
func New(text string) error {
	return stderrors.New(text)
}

// NewSentinel creates an error meant to be declared as a package-level
// value and matched with Is. It carries no call stack.
func NewSentinel(text string) error {
	return stderrors.New(text)
}

// Is re-exports the standard library matcher.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As re-exports the standard library matcher.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap re-exports the standard library unwrapper.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join re-exports the standard library joiner.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// annotatedError decorates a cause with a message, slog attributes, and the
// call stack captured where the error was wrapped.
type annotatedError struct {
	msg   string
	cause error
	attrs []slog.Attr
	stack []uintptr
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// Wrap annotates an error with a message and optional slog attributes,
// capturing the call site for SlogError.
func Wrap(err error, message string, attrs ...slog.Attr) error {
	return &annotatedError{
		msg:   message,
		cause: err,
		attrs: attrs,
		stack: callers(),
	}
}

// DecoratePanic converts a recovered panic value into an error whose stack
// points at the panic site. A nil recovered value yields nil.
func DecoratePanic(recovered any) error {
	if recovered == nil {
		return nil
	}
	return &annotatedError{
		msg:   fmt.Sprintf("panic: %v", recovered),
		cause: nil,
		attrs: nil,
		stack: callers(),
	}
}

// SlogError flattens an error chain into a single slog attribute with the
// message, the collected annotations, and the captured source trace.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}

	attrs := []any{slog.String("message", err.Error())}

	var (
		annotations []any
		stack       []uintptr
	)
	for current := err; current != nil; current = Unwrap(current) {
		var annotated *annotatedError
		if ok := As(current, &annotated); !ok {
			break
		}
		for _, attr := range annotated.attrs {
			annotations = append(annotations, attr)
		}
		if stack == nil {
			stack = annotated.stack
		}
		current = annotated
	}

	if len(annotations) > 0 {
		attrs = append(attrs, slog.Group("annotations", annotations...))
	}
	if len(stack) > 0 {
		attrs = append(attrs, slog.String("source", formatStack(stack)))
	}

	return slog.Group("error", attrs...)
}

// callers captures the current call stack minus this package's own frames.
func callers() []uintptr {
	var pcs [32]uintptr
	// Skip runtime.Callers, this function, and the exported constructor.
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// formatStack renders the captured frames, dropping any that still point
// into this file so log lines lead straight to the caller.
func formatStack(stack []uintptr) string {
	var b strings.Builder
	frames := runtime.CallersFrames(stack)
	for {
		frame, more := frames.Next()
		if frame.File != "" && !strings.HasSuffix(frame.File, "annotatederror.go") {
			_, _ = fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return b.String()
}
