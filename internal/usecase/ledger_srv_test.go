package usecase

import (
	"errors"
	"testing"

	"rental-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insertBooking stores a bare accepted booking the ledger can post against.
func (f *fixture) insertBooking() uuid.UUID {
	f.t.Helper()
	now := f.clock.Now()
	deadline := now.Add(f.config.Booking.PaymentWindow())
	b := &entity.Booking{
		Base:            entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Reference:       "BK-TEST-" + uuid.NewString()[:8],
		PropertyID:      f.property.ID,
		GuestID:         f.guest,
		OwnerID:         f.owner,
		CheckInDate:     now.AddDate(0, 0, 10),
		CheckOutDate:    now.AddDate(0, 0, 12),
		GuestCount:      1,
		Status:          entity.BookingStatusAccepted,
		PaymentStatus:   entity.PaymentStatusUnpaid,
		AcceptedAt:      &now,
		PaymentDeadline: &deadline,
		TotalAmount:     1000,
	}
	require.NoError(f.t, f.store.Repository().Booking.Create(f.ctx(), b))
	return b.ID
}

func TestLedger_RunningBalance(t *testing.T) {
	f := newFixture(t)
	ledger := f.svc.Ledger
	id := f.insertBooking()

	_, err := ledger.PostDebit(f.ctx(), id, 1000, "DR")
	require.NoError(t, err)

	balance, err := ledger.RunningBalance(f.ctx(), id)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance)

	_, err = ledger.PostCredit(f.ctx(), id, 1000, "CR")
	require.NoError(t, err)

	balance, err = ledger.RunningBalance(f.ctx(), id)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)
}

func TestLedger_RejectsInconsistentEntries(t *testing.T) {
	f := newFixture(t)
	ledger := f.svc.Ledger
	id := f.insertBooking()

	_, err := ledger.PostDebit(f.ctx(), id, 1000, "DR")
	require.NoError(t, err)

	t.Run("second receivable", func(t *testing.T) {
		_, err := ledger.PostDebit(f.ctx(), id, 1000, "DR-2")
		assert.Equal(t, KindPaymentMismatch, KindOf(err))
	})

	t.Run("credit above debit", func(t *testing.T) {
		_, err := ledger.PostCredit(f.ctx(), id, 1000.01, "CR")
		var mismatch *PaymentMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, 1000.0, mismatch.Expected)
		assert.Equal(t, 1000.01, mismatch.Got)
	})

	t.Run("second payment", func(t *testing.T) {
		_, err := ledger.PostCredit(f.ctx(), id, 400, "CR-1")
		require.NoError(t, err)

		_, err = ledger.PostCredit(f.ctx(), id, 100, "CR-2")
		assert.Equal(t, KindPaymentMismatch, KindOf(err))
	})

	entries, err := ledger.Entries(f.ctx(), id)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLedger_PostingRequiresBooking(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Ledger.PostDebit(f.ctx(), uuid.New(), 100, "DR")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestLedger_CancelOpenEntriesKeepsRefunds(t *testing.T) {
	f := newFixture(t)
	ledger := f.svc.Ledger
	id := f.insertBooking()

	_, err := ledger.PostDebit(f.ctx(), id, 1000, "DR")
	require.NoError(t, err)
	_, err = ledger.PostRefund(f.ctx(), id, 250, "RF")
	require.NoError(t, err)

	n, err := ledger.CancelOpenEntries(f.ctx(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = ledger.CancelOpenEntries(f.ctx(), id)
	require.NoError(t, err)
	assert.Zero(t, n)

	settlement, err := ledger.Settlement(f.ctx(), id)
	require.NoError(t, err)
	assert.Zero(t, settlement.Balance)
	assert.Zero(t, settlement.Debits)
	assert.Equal(t, 250.0, settlement.Refunds)
	require.Len(t, settlement.Entries, 2)
	assert.Equal(t, entity.LedgerStatusCancelled, settlement.Entries[0].Status)
	assert.Equal(t, entity.LedgerStatusPending, settlement.Entries[1].Status)
}

func TestLedger_CompleteDebit(t *testing.T) {
	f := newFixture(t)
	ledger := f.svc.Ledger
	id := f.insertBooking()

	err := ledger.CompleteDebit(f.ctx(), id)
	assert.Equal(t, KindPaymentMismatch, KindOf(err), "nothing to settle yet")

	_, err = ledger.PostDebit(f.ctx(), id, 1000, "DR")
	require.NoError(t, err)
	require.NoError(t, ledger.CompleteDebit(f.ctx(), id))

	entries, err := ledger.Entries(f.ctx(), id)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.LedgerStatusCompleted, entries[0].Status)

	// Completed entries are no longer cancellable.
	n, err := ledger.CancelOpenEntries(f.ctx(), id)
	require.NoError(t, err)
	assert.Zero(t, n)
}
