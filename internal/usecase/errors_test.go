package usecase

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"rental-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		err  error
		want ErrorKind
	}{
		{&ConflictError{PropertyID: id}, KindConflict},
		{&InvalidRangeError{Reason: "check-out must be after check-in"}, KindInvalidRange},
		{&InvalidTransitionError{From: entity.BookingStatusCancelled, Attempted: ActionAccept}, KindInvalidTransition},
		{&DeadlineExpiredError{BookingID: id, Window: "payment", Deadline: time.Now()}, KindDeadlineExpired},
		{&PaymentMismatchError{BookingID: id, Reason: "payment already recorded"}, KindPaymentMismatch},
		{&InsufficientPointsError{Requested: 10, Available: 5}, KindInsufficientPoints},
		{&NotFoundError{Resource: "booking", ID: id.String()}, KindNotFound},
		{&ValidationError{Message: "bad"}, KindValidation},
		{&ForbiddenError{Action: "accept booking"}, KindForbidden},
		{errors.New("connection reset"), KindInternal},
		{nil, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
			if tt.err != nil {
				assert.Equal(t, tt.want, KindOf(fmt.Errorf("wrapped: %w", tt.err)))
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "cannot pay for a booking that is cancelled",
		(&InvalidTransitionError{From: entity.BookingStatusCancelled, Attempted: ActionRecordPayment}).Error())
	assert.Equal(t, "cannot check in a booking that is confirmed: booking is not paid",
		(&InvalidTransitionError{From: entity.BookingStatusConfirmed, Attempted: ActionCheckIn, Reason: "booking is not paid"}).Error())
	assert.Equal(t, "at least 100 points must be redeemed, requested 50",
		(&InsufficientPointsError{Requested: 50, Available: 500, Minimum: 100}).Error())
	assert.Equal(t, "insufficient points: requested 900, available 500",
		(&InsufficientPointsError{Requested: 900, Available: 500, Minimum: 100}).Error())
	assert.Equal(t, "too many guests (guest_count: Maximum value is 4)",
		(&ValidationError{Message: "too many guests", Fields: map[string]string{"guest_count": "Maximum value is 4"}}).Error())
}
