package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Error is a coded judge error. Message overrides the code's default text;
// Err, when set, is appended to it.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
	Stack   string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code.Message()
	}
	if e.Err != nil && e.Err.Error() != msg {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error carrying the code's default message.
func New(code ErrorCode) *Error {
	return newError(code, code.Message(), nil)
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return newError(code, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches code to err. An *Error is recoded in place so the innermost
// message and details survive.
func Wrap(err error, code ErrorCode) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		e.Code = code
		return e
	}
	return newError(code, code.Message(), err)
}

// Wrapf wraps err under a new message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return newError(code, fmt.Sprintf(format, args...), err)
}

func newError(code ErrorCode, msg string, err error) *Error {
	return &Error{
		Code:    code,
		Message: msg,
		Err:     err,
		Details: make(map[string]interface{}),
		Stack:   getStack(3),
	}
}

func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// GetCode extracts the code of the outermost *Error in err's chain.
// Foreign errors map to InternalError.
func GetCode(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalError
}

// Is reports whether err's chain carries an *Error with code.
func Is(err error, code ErrorCode) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Code == code
}

// LogFields renders err for structured logging: the error itself plus the
// code, sorted details and the capture stack of a coded error.
func LogFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}
	var e *Error
	if !stderrors.As(err, &e) {
		return fields
	}
	fields = append(fields, zap.Int("code", int(e.Code)))

	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any("detail."+k, e.Details[k]))
	}
	if e.Stack != "" {
		fields = append(fields, zap.String("origin", e.Stack))
	}
	return fields
}

// getStack records up to ten caller frames, skipping runtime internals.
func getStack(skip int) string {
	const maxDepth = 10
	var pcs [maxDepth]uintptr
	n := runtime.Callers(skip+1, pcs[:])
	if n == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&b, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return b.String()
}

// ConfigFieldError reports a missing or malformed configuration field.
func ConfigFieldError(field, reason string) *Error {
	return Newf(ConfigInvalid, "config %s: %s", field, reason).
		WithDetail("field", field).
		WithDetail("reason", reason)
}
