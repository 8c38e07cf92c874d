package service

import "errors"

// Error kinds. Handlers map each kind to an HTTP status.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Error is a domain failure with a client-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrBookNotFound     = newError(ErrNotFound, "Book not found")
	ErrBookUnavailable  = newError(ErrConflict, "Book is not available for issuance")
	ErrDuplicateBook    = newError(ErrValidation, "Book with this ID already exists")
	ErrBookReferenced   = newError(ErrConflict, "Book has issue records and cannot be deleted")
	ErrStudentNotFound  = newError(ErrNotFound, "Student not found")
	ErrIssueNotFound    = newError(ErrNotFound, "Issue record not found")
	ErrAlreadyReturned  = newError(ErrConflict, "Book already returned")
	ErrInvalidDueDate   = newError(ErrValidation, "Due date must be after the issue date")
	ErrUserNotFound     = newError(ErrNotFound, "User not found")
	ErrUserExists       = newError(ErrValidation, "User already exists")
	ErrUserReferenced   = newError(ErrConflict, "User has issue records and cannot be deleted")
	ErrInvalidRole      = newError(ErrValidation, "Invalid role")
	ErrRoleChangeDenied = newError(ErrForbidden, "Only a super-admin can change roles")
	ErrNotOwner         = newError(ErrForbidden, "You do not have permission to access this resource")

	ErrInvalidCredentials = newError(ErrUnauthorized, "Invalid credentials")

	ErrGatewayNotConfigured = newError(ErrValidation, "Twilio credentials not configured")
	ErrDispatchInProgress   = newError(ErrConflict, "Reminder dispatch already in progress")
)
