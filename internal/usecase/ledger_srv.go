package usecase

import (
	"context"
	"errors"
	"fmt"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService keeps the per-booking record of what the guest owes (DR)
// against what has been received (CR). Entries are never edited once
// completed; corrections are new entries.
type LedgerService interface {
	PostDebit(ctx context.Context, bookingID uuid.UUID, amount float64, ref string) (*entity.LedgerEntry, error)
	PostCredit(ctx context.Context, bookingID uuid.UUID, amount float64, ref string) (*entity.LedgerEntry, error)
	PostDiscount(ctx context.Context, bookingID uuid.UUID, amount float64, ref string) (*entity.LedgerEntry, error)
	PostRefund(ctx context.Context, bookingID uuid.UUID, amount float64, ref string) (*entity.LedgerEntry, error)
	CompleteDebit(ctx context.Context, bookingID uuid.UUID) error
	CancelOpenEntries(ctx context.Context, bookingID uuid.UUID) (int64, error)

	RunningBalance(ctx context.Context, bookingID uuid.UUID) (float64, error)
	Entries(ctx context.Context, bookingID uuid.UUID) ([]*entity.LedgerEntry, error)
	Settlement(ctx context.Context, bookingID uuid.UUID) (*Settlement, error)
}

// Settlement summarises a booking's ledger.
type Settlement struct {
	BookingID uuid.UUID
	Debits    float64
	Credits   float64
	// Balance is the outstanding receivable, Debits minus Credits.
	Balance float64
	Refunds float64
	Entries []*entity.LedgerEntry
}

type ledgerService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  Clock
}

func NewLedgerService(repo *repository.Repository, log *zap.Logger, clock Clock) LedgerService {
	return &ledgerService{
		repo: repo,
		log:  log.With(zap.String("service", "ledger")),
		now:  clock,
	}
}

func (s *ledgerService) PostDebit(ctx context.Context, bookingID uuid.UUID, amount float64, ref string) (*entity.LedgerEntry, error) {
	return s.post(ctx, bookingID, entity.LedgerKindOwnerAccepted, entity.LedgerStatusPending, amount, ref)
}

// PostCredit records cash received from the guest.
func (s *ledgerService) PostCredit(ctx context.Context, bookingID uuid.UUID, amount float64, ref string) (*entity.LedgerEntry, error) {
	return s.post(ctx, bookingID, entity.LedgerKindGuestPayment, entity.LedgerStatusCompleted, amount, ref)
}

// PostDiscount records the part of the receivable settled with points.
func (s *ledgerService) PostDiscount(ctx context.Context, bookingID uuid.UUID, amount float64, ref string) (*entity.LedgerEntry, error) {
	return s.post(ctx, bookingID, entity.LedgerKindPointsDiscount, entity.LedgerStatusCompleted, amount, ref)
}

// PostRefund records money owed back to the guest. It stays pending until
// the payment processor confirms the payout.
func (s *ledgerService) PostRefund(ctx context.Context, bookingID uuid.UUID, amount float64, ref string) (*entity.LedgerEntry, error) {
	return s.post(ctx, bookingID, entity.LedgerKindRefund, entity.LedgerStatusPending, amount, ref)
}

func (s *ledgerService) post(ctx context.Context, bookingID uuid.UUID, kind entity.LedgerKind, status entity.LedgerStatus, amount float64, ref string) (*entity.LedgerEntry, error) {
	amount = roundMoney(amount)
	if amount < 0 {
		return nil, &ValidationError{Message: fmt.Sprintf("%s amount must not be negative", kind)}
	}

	var entry *entity.LedgerEntry
	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		booking, err := s.repo.Booking.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return &NotFoundError{Resource: "booking", ID: bookingID.String()}
		}

		entries, err := s.repo.Ledger.FindByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := s.guard(bookingID, entries, kind, amount); err != nil {
			return err
		}

		now := s.now()
		entry = &entity.LedgerEntry{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			BookingID: bookingID,
			Kind:      kind,
			Amount:    amount,
			Status:    status,
			Reference: ref,
		}
		return s.repo.Ledger.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Ledger entry posted",
		zap.String("booking_id", bookingID.String()),
		zap.String("kind", string(kind)),
		zap.Float64("amount", amount),
		zap.String("reference", ref),
	)
	return entry, nil
}

// guard rejects an entry that would leave the ledger inconsistent.
func (s *ledgerService) guard(bookingID uuid.UUID, entries []*entity.LedgerEntry, kind entity.LedgerKind, amount float64) error {
	debits, credits := fold(entries)

	var mismatch *PaymentMismatchError
	switch {
	case kind == entity.LedgerKindOwnerAccepted && hasOpen(entries, kind):
		mismatch = &PaymentMismatchError{BookingID: bookingID, Reason: "receivable already posted", Expected: 0, Got: amount}
	case kind == entity.LedgerKindGuestPayment && hasOpen(entries, kind):
		mismatch = &PaymentMismatchError{BookingID: bookingID, Reason: "payment already recorded", Expected: 0, Got: amount}
	case kind.IsCredit() && roundMoney(credits+amount) > roundMoney(debits)+0.004:
		mismatch = &PaymentMismatchError{BookingID: bookingID, Reason: "credit exceeds amount owed", Expected: roundMoney(debits - credits), Got: amount}
	}
	if mismatch == nil {
		return nil
	}

	s.log.Error("Ledger consistency alarm",
		zap.String("booking_id", bookingID.String()),
		zap.String("kind", string(kind)),
		zap.String("reason", mismatch.Reason),
		zap.Float64("amount", amount),
		zap.Float64("debits", debits),
		zap.Float64("credits", credits),
	)
	return mismatch
}

func (s *ledgerService) CompleteDebit(ctx context.Context, bookingID uuid.UUID) error {
	return s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		entries, err := s.repo.Ledger.FindByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}

		for _, e := range entries {
			if e.Kind != entity.LedgerKindOwnerAccepted || e.Status != entity.LedgerStatusPending {
				continue
			}
			if err := s.repo.Ledger.UpdateStatus(ctx, e.ID, entity.LedgerStatusCompleted, s.now()); err != nil {
				if errors.Is(err, repository.ErrEntryNotPending) {
					return &PaymentMismatchError{BookingID: bookingID, Reason: "receivable already settled"}
				}
				return err
			}
			return nil
		}

		return &PaymentMismatchError{BookingID: bookingID, Reason: "no open receivable to settle"}
	})
}

func (s *ledgerService) CancelOpenEntries(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	n, err := s.repo.Ledger.CancelPendingByBookingID(ctx, bookingID, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("Open ledger entries cancelled",
			zap.String("booking_id", bookingID.String()),
			zap.Int64("count", n),
		)
	}
	return n, nil
}

func (s *ledgerService) RunningBalance(ctx context.Context, bookingID uuid.UUID) (float64, error) {
	entries, err := s.repo.Ledger.FindByBookingID(ctx, bookingID)
	if err != nil {
		return 0, err
	}
	debits, credits := fold(entries)
	return roundMoney(debits - credits), nil
}

func (s *ledgerService) Entries(ctx context.Context, bookingID uuid.UUID) ([]*entity.LedgerEntry, error) {
	return s.repo.Ledger.FindByBookingID(ctx, bookingID)
}

func (s *ledgerService) Settlement(ctx context.Context, bookingID uuid.UUID) (*Settlement, error) {
	entries, err := s.repo.Ledger.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	debits, credits := fold(entries)
	settlement := &Settlement{
		BookingID: bookingID,
		Debits:    debits,
		Credits:   credits,
		Balance:   roundMoney(debits - credits),
		Entries:   entries,
	}
	for _, e := range entries {
		if e.Kind == entity.LedgerKindRefund && e.Status != entity.LedgerStatusCancelled {
			settlement.Refunds = roundMoney(settlement.Refunds + e.Amount)
		}
	}
	return settlement, nil
}

// fold sums live debits and credits in creation order. Refunds are a
// separate payable and do not move the receivable.
func fold(entries []*entity.LedgerEntry) (debits, credits float64) {
	for _, e := range entries {
		if e.Status == entity.LedgerStatusCancelled {
			continue
		}
		switch {
		case e.Kind.IsDebit():
			debits += e.Amount
		case e.Kind.IsCredit():
			credits += e.Amount
		}
	}
	return roundMoney(debits), roundMoney(credits)
}

func hasOpen(entries []*entity.LedgerEntry, kind entity.LedgerKind) bool {
	for _, e := range entries {
		if e.Kind == kind && e.Status != entity.LedgerStatusCancelled {
			return true
		}
	}
	return false
}
