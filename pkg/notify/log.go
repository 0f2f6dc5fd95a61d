package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogNotifier writes messages to the application log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (n *LogNotifier) Notify(_ context.Context, userID uuid.UUID, msg Message) error {
	n.log.Info("Notification",
		zap.String("user_id", userID.String()),
		zap.String("event", msg.Event),
		zap.String("booking_id", msg.BookingID.String()),
		zap.String("reference", msg.Reference),
		zap.String("subject", msg.Subject),
	)
	return nil
}
