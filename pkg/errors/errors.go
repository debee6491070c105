package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. Message holds
// the Arabic user-facing text; Code is the stable machine identifier.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Dependency conflicts are surfaced
// as 400 to match the contract the admin dashboard already consumes.
var (
	ErrNotFound       = New("NOT_FOUND", http.StatusNotFound, "العنصر المطلوب غير موجود")
	ErrValidation     = New("VALIDATION_ERROR", http.StatusBadRequest, "البيانات المدخلة غير صحيحة")
	ErrDuplicate      = New("DUPLICATE", http.StatusBadRequest, "السجل موجود مسبقاً")
	ErrHasDependents  = New("HAS_DEPENDENTS", http.StatusBadRequest, "لا يمكن الحذف لوجود سجلات مرتبطة")
	ErrTiersExhausted = New("ALL_TIERS_FAILED", http.StatusInternalServerError, "تعذر الوصول إلى قاعدة البيانات")
	ErrInternal       = New("INTERNAL_ERROR", http.StatusInternalServerError, "حدث خطأ في الخادم")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
