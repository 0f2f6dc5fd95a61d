package usecase

import (
	"errors"
	"fmt"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/utils"

	"github.com/google/uuid"
)

// ErrorKind classifies every error a service method can return.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindConflict
	KindInvalidRange
	KindInvalidTransition
	KindDeadlineExpired
	KindPaymentMismatch
	KindInsufficientPoints
	KindNotFound
	KindValidation
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindInvalidRange:
		return "invalid_range"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindDeadlineExpired:
		return "deadline_expired"
	case KindPaymentMismatch:
		return "payment_mismatch"
	case KindInsufficientPoints:
		return "insufficient_points"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// ConflictError means the requested dates overlap an active booking.
type ConflictError struct {
	PropertyID  uuid.UUID
	CheckIn     time.Time
	CheckOut    time.Time
	Conflicting []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("property %s is no longer available from %s to %s",
		e.PropertyID, e.CheckIn.Format(time.DateOnly), e.CheckOut.Format(time.DateOnly))
}

type InvalidRangeError struct {
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return "invalid date range: " + e.Reason
}

// InvalidTransitionError means the booking is in the wrong state for the
// requested action. Nothing was changed.
type InvalidTransitionError struct {
	From      entity.BookingStatus
	Attempted Action
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s a booking that is %s", e.Attempted.verb(), e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

type DeadlineExpiredError struct {
	BookingID uuid.UUID
	// Window is "payment" or "response".
	Window   string
	Deadline time.Time
}

func (e *DeadlineExpiredError) Error() string {
	return fmt.Sprintf("%s window expired for booking %s at %s", e.Window, e.BookingID, e.Deadline.Format(time.RFC3339))
}

// PaymentMismatchError signals a credit the ledger cannot accept, usually a
// retried payment. It is a consistency alarm, not a user mistake.
type PaymentMismatchError struct {
	BookingID uuid.UUID
	Reason    string
	Expected  float64
	Got       float64
}

func (e *PaymentMismatchError) Error() string {
	return fmt.Sprintf("payment mismatch on booking %s: %s (expected %.2f, got %.2f)",
		e.BookingID, e.Reason, e.Expected, e.Got)
}

type InsufficientPointsError struct {
	Requested int64
	Available int64
	Minimum   int64
}

func (e *InsufficientPointsError) Error() string {
	if e.Requested < e.Minimum {
		return fmt.Sprintf("at least %d points must be redeemed, requested %d", e.Minimum, e.Requested)
	}
	return fmt.Sprintf("insufficient points: requested %d, available %d", e.Requested, e.Available)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + " (" + utils.FormatValidationErrors(e.Fields) + ")"
}

type ForbiddenError struct {
	Action string
}

func (e *ForbiddenError) Error() string {
	return "not allowed to " + e.Action
}

// KindOf maps err onto the taxonomy. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	var (
		conflict     *ConflictError
		invalidRange *InvalidRangeError
		transition   *InvalidTransitionError
		expired      *DeadlineExpiredError
		mismatch     *PaymentMismatchError
		points       *InsufficientPointsError
		notFound     *NotFoundError
		validation   *ValidationError
		forbidden    *ForbiddenError
	)

	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &conflict):
		return KindConflict
	case errors.As(err, &invalidRange):
		return KindInvalidRange
	case errors.As(err, &transition):
		return KindInvalidTransition
	case errors.As(err, &expired):
		return KindDeadlineExpired
	case errors.As(err, &mismatch):
		return KindPaymentMismatch
	case errors.As(err, &points):
		return KindInsufficientPoints
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &forbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}
