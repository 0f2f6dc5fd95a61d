package usecase

import (
	"context"
	"time"

	"rental-booking/internal/data/repository"
	"rental-booking/pkg/notify"
	"rental-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Clock returns the current time. Services never call time.Now directly.
type Clock func() time.Time

type Service struct {
	Availability AvailabilityService
	Ledger       LedgerService
	Rewards      RewardsService
	Booking      BookingService
}

func NewService(repo *repository.Repository, config *utils.Config, notifier notify.Notifier, log *zap.Logger, clock Clock) *Service {
	if clock == nil {
		clock = time.Now
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}

	availability := NewAvailabilityService(repo, log, clock)
	ledger := NewLedgerService(repo, log, clock)
	rewards := NewRewardsService(repo, log, clock)

	return &Service{
		Availability: availability,
		Ledger:       ledger,
		Rewards:      rewards,
		Booking: NewBookingService(BookingDeps{
			Repo:         repo,
			Availability: availability,
			Ledger:       ledger,
			Rewards:      rewards,
			Notifier:     notifier,
			Config:       config.Booking,
		}, log, clock),
	}
}

// sendNotification delivers msg and only logs a failure.
func sendNotification(ctx context.Context, n notify.Notifier, log *zap.Logger, userID uuid.UUID, msg notify.Message) {
	if err := n.Notify(ctx, userID, msg); err != nil {
		log.Warn("Notification failed",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("event", msg.Event),
			zap.String("booking_id", msg.BookingID.String()),
		)
	}
}
