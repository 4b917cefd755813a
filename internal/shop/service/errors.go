package service

import (
	"errors"
	"fmt"
)

// Domain error kinds. Handlers map these onto HTTP statuses; the kind is the
// stable machine-readable part, the message is for humans.
const (
	KindValidation = "validation"
	KindConflict   = "conflict"
	KindNotFound   = "not_found"
	KindForbidden  = "forbidden"
)

// DomainError is an error raised by a shop operation because of the state of
// the data, as opposed to an infrastructure failure.
type DomainError struct {
	Kind    string
	Message string
	// TicketIDs carries the offending ticket ids on conflict errors raised
	// while reversing a completed request.
	TicketIDs []int64
}

func (e *DomainError) Error() string {
	return e.Message
}

// ValidationError reports malformed or missing input.
func ValidationError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports that a structural invariant would be violated.
func ConflictError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// ConflictTickets reports a conflict caused by the given tickets.
func ConflictTickets(ticketIDs []int64, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindConflict, Message: fmt.Sprintf(format, args...), TicketIDs: ticketIDs}
}

// NotFoundError reports that a referenced entity does not exist.
func NotFoundError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// ForbiddenError reports an operation not permitted on the entity's state.
func ForbiddenError(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// AsDomain unwraps err to a DomainError, or nil if it is infrastructure.
func AsDomain(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}
