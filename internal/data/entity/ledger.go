package entity

import (
	"github.com/google/uuid"
)

type LedgerKind string

const (
	// LedgerKindOwnerAccepted is the receivable posted when the owner accepts.
	LedgerKindOwnerAccepted LedgerKind = "owner_accepted"
	// LedgerKindGuestPayment is the cash the guest paid against the receivable.
	LedgerKindGuestPayment LedgerKind = "guest_payment"
	// LedgerKindPointsDiscount is the part of the receivable settled by points.
	LedgerKindPointsDiscount LedgerKind = "points_discount"
	// LedgerKindRefund is money owed back to the guest after a paid cancellation.
	LedgerKindRefund LedgerKind = "refund"
)

func (k LedgerKind) IsDebit() bool {
	return k == LedgerKindOwnerAccepted
}

func (k LedgerKind) IsCredit() bool {
	return k == LedgerKindGuestPayment || k == LedgerKindPointsDiscount
}

type LedgerStatus string

const (
	LedgerStatusPending   LedgerStatus = "pending"
	LedgerStatusCompleted LedgerStatus = "completed"
	LedgerStatusCancelled LedgerStatus = "cancelled"
)

type LedgerEntry struct {
	Base
	BookingID uuid.UUID    `db:"booking_id"`
	Kind      LedgerKind   `db:"kind"`
	Amount    float64      `db:"amount"`
	Status    LedgerStatus `db:"status"`
	Reference string       `db:"reference"`
}
