package apperror

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// Kind groups codes by who has to act on the failure.
type Kind int

const (
	KindInternal Kind = iota
	KindInput
	KindConfig
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindConfig:
		return "config"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// AppError carries a stable code, a human message and optional detail about
// where it happened.
type AppError struct {
	Code    Code
	Message string
	Context string
	cause   error
	stack   []uintptr
}

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Context)
		sb.WriteString(")")
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches another *AppError by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Kind classifies the error code.
func (e *AppError) Kind() Kind {
	return kindOf(e.Code)
}

// LogValue renders the error as a group so JSON logs keep the code separate
// from the text.
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
	}
	if e.Context != "" {
		attrs = append(attrs, slog.String("context", e.Context))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Stack returns the frames captured at creation, runtime frames omitted.
func (e *AppError) Stack() string {
	if len(e.stack) == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func callers() []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// Option configures an AppError.
type Option func(*AppError)

// New creates an AppError. The message comes from the code's registered text
// unless WithMessage overrides it.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:    code,
		Message: messages[code],
		stack:   callers(),
	}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

// WithMessage replaces the registered message.
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext records where the error happened.
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithCause wraps an underlying error.
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// Wrap returns nil for a nil err. An AppError anywhere in the chain is
// returned as is, with context filled in if it had none; anything else is
// wrapped under code.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return New(code, WithContext(context), WithCause(err))
}

// IsAppError reports whether err has an AppError in its chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the code of the first AppError in the chain, or
// CodeUnknownError.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// KindOf classifies err; plain errors are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind()
	}
	return KindInternal
}

func kindOf(code Code) Kind {
	s := string(code)
	switch {
	case code == CodeConfigurationError:
		return KindConfig
	case strings.HasPrefix(s, "INVALID_"),
		code == CodeNotFound:
		return KindInput
	case strings.HasSuffix(s, "_FAILED"),
		strings.HasPrefix(s, "SERVICE_"),
		code == CodeRateLimitExceeded,
		code == CodeCircuitOpen,
		code == CodeLLMEmptyReply,
		code == CodeToolCallInvalid:
		return KindUpstream
	default:
		return KindInternal
	}
}
