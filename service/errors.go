package service

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"syscall"

	"google.golang.org/api/googleapi"
)

// Error kinds. Compare with errors.Is.
var (
	// Input validation: fatal, raised before any call to the imagery service
	ErrInvalidGridKey          = errors.New("invalid grid key")
	ErrInvalidBounds           = errors.New("invalid bounds")
	ErrInvalidSampleParameters = errors.New("invalid sample parameters")
	ErrInvalidFilterSpec       = errors.New("invalid filter spec")

	// Per-job failures: recorded, the batch goes on
	ErrCatalogQueryFailed     = errors.New("catalog query failed")
	ErrExportFailed           = errors.New("export failed")
	ErrAuthenticationRequired = errors.New("authentication required")
)

// kindError attaches an error kind to a detailed message
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.err)
}

func (e *kindError) Unwrap() []error { return []error{e.kind, e.err} }

// Errorf returns an error of the given kind, formatted like fmt.Errorf
// errors.Is(err, kind) is true, as well as any error wrapped with %w in format
func Errorf(kind error, format string, args ...interface{}) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, args...)}
}

// IsValidationError returns true if err is one of the input validation kinds
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidGridKey) ||
		errors.Is(err, ErrInvalidBounds) ||
		errors.Is(err, ErrInvalidSampleParameters) ||
		errors.Is(err, ErrInvalidFilterSpec)
}

type errTmpIf interface{ Temporary() bool }
type errTmp struct{ error }

func (t errTmp) Temporary() bool    { return true }
func (t *errTmp) Unwrap() error     { return t.error }
func MakeTemporary(err error) error { return &errTmp{err} }

type errFatalIf interface{ Fatal() bool }
type errFatal struct{ error }

func (t errFatal) Fatal() bool    { return true }
func (t *errFatal) Unwrap() error { return t.error }
func MakeFatal(err error) error   { return &errFatal{err} }

// Temporary inspects the error trace and returns whether the error is transient
func Temporary(err error) bool {
	var uerr *neturl.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}

	//First override some default syscall temporary statuses
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EIO, syscall.EBUSY, syscall.ECANCELED, syscall.ECONNABORTED, syscall.ECONNRESET, syscall.ENOMEM, syscall.EPIPE:
			return true
		}
	}

	//first check explicitely marked error
	var tmp errTmpIf
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}
	var gapiError *googleapi.Error
	if errors.As(err, &gapiError) {
		return gapiError.Code == 429 || gapiError.Code >= 500
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

// Fatal inspects the error and returns whether it's a fatal error
func Fatal(err error) bool {
	var tmp errFatalIf
	if errors.As(err, &tmp) {
		return tmp.Fatal()
	}
	return IsValidationError(err)
}

// MergeErrors, appending texts
// if priorityToErr is true, priority to the fatal error then to the temporary
// else, priority to no error, then to the temporary and finally to the fatal error.
func MergeErrors(priorityToError bool, err error, newErrs ...error) error {
	if len(newErrs) == 0 {
		return err
	}
	newErr := newErrs[0]

	if newErr == nil {
		if !priorityToError {
			return nil
		}
	} else if err == nil {
		err = newErr
	} else if priorityToError != Temporary(err) {
		err = fmt.Errorf("%w\n %v", err, newErr)
	} else {
		err = fmt.Errorf("%w\n %v", newErr, err)
	}
	return MergeErrors(priorityToError, err, newErrs[1:]...)
}

// AuthError maps a googleapi.Error with 401/403 code to ErrAuthenticationRequired
// Other errors are returned unchanged
func AuthError(err error) error {
	var gapiError *googleapi.Error
	if errors.As(err, &gapiError) && (gapiError.Code == 401 || gapiError.Code == 403) {
		return Errorf(ErrAuthenticationRequired, "%w", err)
	}
	return err
}
