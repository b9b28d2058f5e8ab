// Package serviceerr carries coded service failures shared by the domain packages.
package serviceerr

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var noOpLogger = zap.NewNop()

// Failure kinds shared by the domain packages. Package-level sentinels wrap one of these
// so the HTTP layer can pick a status without knowing every package.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// Error wraps a cause with a dotted code of the form <operation>.<reason>.
type Error struct {
	code string
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Code() string {
	return e.code
}

// New builds a coded error for operation and reason.
func New(operation, reason string, cause error) error {
	return &Error{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// Code returns the code of the first Error in err's chain, or "".
func Code(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.code
	}
	return ""
}

// Cause returns the innermost error wrapped by a coded error, or err itself.
func Cause(err error) error {
	var coded *Error
	if errors.As(err, &coded) && coded.err != nil {
		return coded.err
	}
	return err
}

// Logger returns logger, or a no-op logger when nil.
func Logger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return noOpLogger
	}
	return logger
}

// Log records a service failure at error level.
func Log(logger *zap.Logger, message, operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	Logger(logger).Error(message, attrs...)
}
