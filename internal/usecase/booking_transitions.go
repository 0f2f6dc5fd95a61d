package usecase

import (
	"slices"

	"rental-booking/internal/data/entity"
)

// Action is a request to move a booking through its lifecycle.
type Action string

const (
	ActionAccept        Action = "accept"
	ActionRecordPayment Action = "record_payment"
	ActionCheckIn       Action = "check_in"
	ActionCheckOut      Action = "check_out"
	ActionCancel        Action = "cancel"
	ActionExpire        Action = "expire"
)

func (a Action) verb() string {
	switch a {
	case ActionRecordPayment:
		return "pay for"
	case ActionCheckIn:
		return "check in"
	case ActionCheckOut:
		return "check out"
	default:
		return string(a)
	}
}

type actorRole int

const (
	roleOwner actorRole = iota
	roleGuest
	roleParty // guest or owner
	roleSystem
)

type transition struct {
	from  []entity.BookingStatus
	to    entity.BookingStatus
	actor actorRole
}

var transitions = map[Action]transition{
	ActionAccept: {
		from:  []entity.BookingStatus{entity.BookingStatusPending},
		to:    entity.BookingStatusAccepted,
		actor: roleOwner,
	},
	ActionRecordPayment: {
		from:  []entity.BookingStatus{entity.BookingStatusAccepted},
		to:    entity.BookingStatusConfirmed,
		actor: roleGuest,
	},
	ActionCheckIn: {
		from:  []entity.BookingStatus{entity.BookingStatusConfirmed},
		to:    entity.BookingStatusCheckedIn,
		actor: roleOwner,
	},
	ActionCheckOut: {
		from:  []entity.BookingStatus{entity.BookingStatusCheckedIn},
		to:    entity.BookingStatusCheckedOut,
		actor: roleOwner,
	},
	ActionCancel: {
		from: []entity.BookingStatus{
			entity.BookingStatusPending,
			entity.BookingStatusAccepted,
			entity.BookingStatusConfirmed,
		},
		to:    entity.BookingStatusCancelled,
		actor: roleParty,
	},
	ActionExpire: {
		from: []entity.BookingStatus{
			entity.BookingStatusPending,
			entity.BookingStatusAccepted,
		},
		to:    entity.BookingStatusCancelled,
		actor: roleSystem,
	},
}

// nextStatus returns the status action leads to from the current one.
func nextStatus(action Action, from entity.BookingStatus) (entity.BookingStatus, error) {
	t, ok := transitions[action]
	if !ok || !slices.Contains(t.from, from) {
		return from, &InvalidTransitionError{From: from, Attempted: action}
	}
	return t.to, nil
}

// CanTransition reports whether action is legal from status.
func CanTransition(action Action, from entity.BookingStatus) bool {
	_, err := nextStatus(action, from)
	return err == nil
}
