// Package notify delivers booking lifecycle messages to users. Delivery is
// best-effort: callers log a returned error and carry on.
package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Event names carried on every message.
const (
	EventBookingRequested = "booking.requested"
	EventBookingAccepted  = "booking.accepted"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingExpired   = "booking.expired"
)

type Message struct {
	Event     string
	BookingID uuid.UUID
	Reference string
	Subject   string
	Body      string
}

type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, msg Message) error
}

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, userID uuid.UUID, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, userID, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, uuid.UUID, Message) error { return nil }
