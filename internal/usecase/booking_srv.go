package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/dto/request"
	"rental-booking/internal/dto/response"
	"rental-booking/pkg/notify"
	"rental-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	reasonPaymentExpired  = "payment deadline expired"
	reasonResponseExpired = "owner did not respond in time"
)

type BookingService interface {
	// Guest endpoints
	CreateBooking(ctx context.Context, guestID string, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error)
	Quote(ctx context.Context, req *request.CreateBookingRequest) (*response.QuoteResponse, error)
	GetGuestBookings(ctx context.Context, guestID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	RecordPayment(ctx context.Context, guestID, bookingID string, req *request.RecordPaymentRequest) (*response.BookingResponse, error)

	// Owner endpoints
	Accept(ctx context.Context, ownerID, bookingID string) (*response.BookingResponse, error)
	CheckIn(ctx context.Context, ownerID, bookingID string) (*response.BookingResponse, error)
	CheckOut(ctx context.Context, ownerID, bookingID string) (*response.BookingResponse, error)

	// Either party
	GetBooking(ctx context.Context, actorID, bookingID string) (*response.BookingResponse, error)
	GetLedger(ctx context.Context, actorID, bookingID string) (*response.SettlementResponse, error)
	Cancel(ctx context.Context, actorID, bookingID, reason string) (*response.BookingResponse, error)

	// Expire releases a booking whose hold lapsed unpaid. It reports false
	// when the booking no longer qualifies.
	Expire(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type BookingDeps struct {
	Repo         *repository.Repository
	Availability AvailabilityService
	Ledger       LedgerService
	Rewards      RewardsService
	Notifier     notify.Notifier
	Config       utils.BookingConfig
}

type bookingService struct {
	repo         *repository.Repository
	availability AvailabilityService
	ledger       LedgerService
	rewards      RewardsService
	notifier     notify.Notifier
	config       utils.BookingConfig
	log          *zap.Logger
	now          Clock
}

func NewBookingService(deps BookingDeps, log *zap.Logger, clock Clock) BookingService {
	return &bookingService{
		repo:         deps.Repo,
		availability: deps.Availability,
		ledger:       deps.Ledger,
		rewards:      deps.Rewards,
		notifier:     deps.Notifier,
		config:       deps.Config,
		log:          log.With(zap.String("service", "booking")),
		now:          clock,
	}
}

// ==================== CREATE / QUOTE ====================

func (s *bookingService) CreateBooking(ctx context.Context, guestID string, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error) {
	guest, err := parseID("user", guestID)
	if err != nil {
		return nil, err
	}
	propertyID, err := parseID("property", req.PropertyID)
	if err != nil {
		return nil, err
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	var (
		booking *entity.Booking
		pricing PricingBreakdown
	)
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.now()

		property, coupon, err := s.loadStay(ctx, propertyID, req, checkIn, checkOut, now)
		if err != nil {
			return err
		}
		if property.OwnerID == guest {
			return &ValidationError{Message: "owners cannot book their own property"}
		}

		if err := s.availability.AssertAvailable(ctx, propertyID, checkIn, checkOut, uuid.Nil); err != nil {
			return err
		}

		nights := int(checkOut.Sub(checkIn).Hours() / 24)
		pricing = Price(property, nights, req.GuestCount, coupon, s.config.DefaultCommissionRate, now)

		booking = &entity.Booking{
			Base: entity.Base{
				ID:        utils.GenerateUUID(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			Reference:        utils.GenerateBookingReference(now),
			PropertyID:       propertyID,
			GuestID:          guest,
			OwnerID:          property.OwnerID,
			CheckInDate:      checkIn,
			CheckOutDate:     checkOut,
			GuestCount:       req.GuestCount,
			Status:           entity.BookingStatusPending,
			PaymentStatus:    entity.PaymentStatusUnpaid,
			TotalAmount:      pricing.FinalTotal,
			DiscountAmount:   pricing.DiscountAmount,
			CouponID:         pricing.CouponID,
			CommissionRate:   pricing.CommissionRate,
			CommissionAmount: pricing.CommissionAmount,
			OwnerEarnings:    pricing.OwnerEarnings,
		}
		if window := s.config.ResponseWindow(); window > 0 {
			deadline := now.Add(window)
			booking.ResponseDeadline = &deadline
		}

		return s.repo.Booking.Create(ctx, booking)
	})
	if err != nil {
		s.logFailure("create booking", err, zap.String("property_id", req.PropertyID), zap.String("guest_id", guestID))
		return nil, err
	}

	s.log.Info("Booking requested",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("property_id", booking.PropertyID.String()),
		zap.String("guest_id", guestID),
		zap.Float64("total_amount", booking.TotalAmount),
	)

	sendNotification(ctx, s.notifier, s.log, booking.OwnerID, s.message(notify.EventBookingRequested, booking,
		"New booking request",
		fmt.Sprintf("Booking %s requests %s to %s for %d guest(s).", booking.Reference,
			booking.CheckInDate.Format(utils.DateLayout), booking.CheckOutDate.Format(utils.DateLayout), booking.GuestCount)))

	return &response.CreateBookingResponse{
		Booking: response.BookingToResponse(booking),
		Pricing: pricing.toResponse(),
	}, nil
}

// Quote prices a stay without reserving anything or consuming the coupon.
func (s *bookingService) Quote(ctx context.Context, req *request.CreateBookingRequest) (*response.QuoteResponse, error) {
	propertyID, err := parseID("property", req.PropertyID)
	if err != nil {
		return nil, err
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	now := s.now()
	property, coupon, err := s.loadStay(ctx, propertyID, req, checkIn, checkOut, now)
	if err != nil {
		return nil, err
	}

	available, err := s.availability.IsAvailable(ctx, propertyID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	pricing := Price(property, nights, req.GuestCount, coupon, s.config.DefaultCommissionRate, now)

	return &response.QuoteResponse{
		Available: available,
		Pricing:   pricing.toResponse(),
	}, nil
}

// loadStay resolves the property and coupon for a request and checks the
// stay against the property's rules.
func (s *bookingService) loadStay(ctx context.Context, propertyID uuid.UUID, req *request.CreateBookingRequest, checkIn, checkOut, now time.Time) (*entity.Property, *entity.Coupon, error) {
	if checkIn.Before(utils.StartOfDay(now)) {
		return nil, nil, &InvalidRangeError{Reason: "check-in date is in the past"}
	}

	property, err := s.repo.Property.FindByID(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	if property == nil || !property.IsActive {
		return nil, nil, &NotFoundError{Resource: "property", ID: propertyID.String()}
	}

	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if property.MinimumStay > 0 && nights < property.MinimumStay {
		return nil, nil, &InvalidRangeError{Reason: fmt.Sprintf("minimum stay is %d nights", property.MinimumStay)}
	}
	if property.MaxGuests > 0 && req.GuestCount > property.MaxGuests {
		return nil, nil, &ValidationError{
			Message: "too many guests",
			Fields:  map[string]string{"guest_count": fmt.Sprintf("Maximum value is %d", property.MaxGuests)},
		}
	}

	code := strings.TrimSpace(req.CouponCode)
	if code == "" {
		return property, nil, nil
	}
	coupon, err := s.repo.Coupon.FindByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if coupon == nil {
		return nil, nil, &NotFoundError{Resource: "coupon", ID: code}
	}
	return property, coupon, nil
}

// ==================== READS ====================

func (s *bookingService) GetBooking(ctx context.Context, actorID, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findVisible(ctx, actorID, bookingID)
	if err != nil {
		return nil, err
	}
	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) GetLedger(ctx context.Context, actorID, bookingID string) (*response.SettlementResponse, error) {
	booking, err := s.findVisible(ctx, actorID, bookingID)
	if err != nil {
		return nil, err
	}

	settlement, err := s.ledger.Settlement(ctx, booking.ID)
	if err != nil {
		s.log.Error("Failed to load settlement", zap.Error(err), zap.String("booking_id", bookingID))
		return nil, fmt.Errorf("load ledger for booking %s: %w", bookingID, err)
	}

	entries := make([]response.LedgerEntryResponse, 0, len(settlement.Entries))
	for _, e := range settlement.Entries {
		entries = append(entries, response.LedgerEntryToResponse(e))
	}
	return &response.SettlementResponse{
		BookingID: booking.ID.String(),
		Debits:    settlement.Debits,
		Credits:   settlement.Credits,
		Balance:   settlement.Balance,
		Refunds:   settlement.Refunds,
		Entries:   entries,
	}, nil
}

func (s *bookingService) GetGuestBookings(ctx context.Context, guestID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	guest, err := parseID("user", guestID)
	if err != nil {
		return nil, err
	}

	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByGuestID(ctx, guest, limit, offset)
	if err != nil {
		s.log.Error("Failed to get guest bookings",
			zap.Error(err),
			zap.String("guest_id", guestID),
			zap.Int("page", req.Page),
		)
		return nil, fmt.Errorf("get guest bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByGuestID(ctx, guest)
	if err != nil {
		s.log.Error("Failed to count guest bookings",
			zap.Error(err),
			zap.String("guest_id", guestID),
		)
		return nil, fmt.Errorf("count guest bookings: %w", err)
	}

	data := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, response.BookingToResponse(b))
	}

	return response.NewPaginatedResponse(data, req.Page, limit, total), nil
}

func (s *bookingService) findVisible(ctx context.Context, actorID, bookingID string) (*entity.Booking, error) {
	actor, err := parseID("user", actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if actor != booking.GuestID && actor != booking.OwnerID {
		// Hide bookings from third parties entirely.
		return nil, &NotFoundError{Resource: "booking", ID: bookingID}
	}
	return booking, nil
}

// ==================== TRANSITIONS ====================

// Accept grants the guest a payment window and books the receivable.
func (s *bookingService) Accept(ctx context.Context, ownerID, bookingID string) (*response.BookingResponse, error) {
	var lapsed bool
	booking, err := s.transition(ctx, ownerID, bookingID, ActionAccept, func(ctx context.Context, b *entity.Booking, now time.Time) error {
		if b.ResponseDeadline != nil && !b.ResponseDeadline.After(now) {
			lapsed = true
			return &DeadlineExpiredError{BookingID: b.ID, Window: "response", Deadline: *b.ResponseDeadline}
		}

		// Another request for these dates may have been accepted first.
		if err := s.availability.AssertAvailable(ctx, b.PropertyID, b.CheckInDate, b.CheckOutDate, b.ID); err != nil {
			return err
		}

		deadline := now.Add(s.config.PaymentWindow())
		b.Status = entity.BookingStatusAccepted
		b.AcceptedAt = &now
		b.PaymentDeadline = &deadline

		if _, err := s.ledger.PostDebit(ctx, b.ID, b.TotalAmount, b.Reference+"-DR"); err != nil {
			return err
		}

		commission, owner := splitCommission(b.TotalAmount, b.CommissionRate)
		err := s.repo.Earnings.Create(ctx, &entity.AdminEarnings{
			Base: entity.Base{
				ID:        utils.GenerateUUID(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			BookingID:        b.ID,
			CommissionRate:   b.CommissionRate,
			CommissionAmount: commission,
			OwnerEarnings:    owner,
			Status:           entity.EarningsStatusPending,
		})
		if err != nil {
			return err
		}

		if b.CouponID != nil {
			used, err := s.repo.Coupon.IncrementUsage(ctx, *b.CouponID)
			if err != nil {
				return err
			}
			if !used {
				s.log.Warn("Coupon usage limit reached at acceptance",
					zap.String("booking_id", b.ID.String()),
					zap.String("coupon_id", b.CouponID.String()),
				)
			}
		}
		return nil
	}, withLapsedHoldCheck("response"))
	if lapsed {
		s.expireAfterFailure(ctx, bookingID)
	}
	if err != nil {
		return nil, err
	}

	sendNotification(ctx, s.notifier, s.log, booking.GuestID, s.message(notify.EventBookingAccepted, booking,
		"Your booking was accepted",
		fmt.Sprintf("Booking %s was accepted. Please pay %.2f before %s.", booking.Reference,
			booking.TotalAmount, booking.PaymentDeadline.Format(time.RFC1123))))

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// RecordPayment settles the receivable, optionally redeeming points, and
// confirms the booking.
func (s *bookingService) RecordPayment(ctx context.Context, guestID, bookingID string, req *request.RecordPaymentRequest) (*response.BookingResponse, error) {
	var lapsed bool
	booking, err := s.transition(ctx, guestID, bookingID, ActionRecordPayment, func(ctx context.Context, b *entity.Booking, now time.Time) error {
		if b.PaymentDeadline == nil || !b.PaymentDeadline.After(now) {
			lapsed = true
			deadline := now
			if b.PaymentDeadline != nil {
				deadline = *b.PaymentDeadline
			}
			return &DeadlineExpiredError{BookingID: b.ID, Window: "payment", Deadline: deadline}
		}

		if req.PointsToRedeem > 0 {
			limit, err := s.rewards.MaxRedeemable(ctx, b.GuestID, b.TotalAmount)
			if err != nil {
				return err
			}
			if req.PointsToRedeem > limit {
				settings, err := s.repo.PointsConf.GetSettings(ctx)
				if err != nil {
					return err
				}
				var minimum int64
				if settings != nil {
					minimum = settings.MinPointsToRedeem
				}
				return &InsufficientPointsError{Requested: req.PointsToRedeem, Available: limit, Minimum: minimum}
			}

			discount, err := s.rewards.Redeem(ctx, b.GuestID, req.PointsToRedeem, b.ID)
			if err != nil {
				return err
			}
			if _, err := s.ledger.PostDiscount(ctx, b.ID, discount, b.Reference+"-PTS"); err != nil {
				return err
			}
			b.PointsRedeemed = req.PointsToRedeem
			b.PointsDiscount = discount
			b.TotalAmount = roundMoney(b.TotalAmount - discount)
		}

		due, err := s.ledger.RunningBalance(ctx, b.ID)
		if err != nil {
			return err
		}
		if !sameAmount(due, b.TotalAmount) {
			s.log.Error("Ledger consistency alarm",
				zap.String("booking_id", b.ID.String()),
				zap.Float64("balance", due),
				zap.Float64("total_amount", b.TotalAmount),
			)
			return &PaymentMismatchError{BookingID: b.ID, Reason: "receivable does not match booking total", Expected: b.TotalAmount, Got: due}
		}
		if req.Amount != nil && !sameAmount(*req.Amount, due) {
			return &PaymentMismatchError{BookingID: b.ID, Reason: "paid amount does not match amount due", Expected: due, Got: *req.Amount}
		}

		ref := b.Reference + "-PAY"
		if req.TransactionRef != nil && *req.TransactionRef != "" {
			ref = *req.TransactionRef
		}
		if _, err := s.ledger.PostCredit(ctx, b.ID, due, ref); err != nil {
			return err
		}
		if err := s.ledger.CompleteDebit(ctx, b.ID); err != nil {
			return err
		}

		method := req.Method
		b.Status = entity.BookingStatusConfirmed
		b.PaymentStatus = entity.PaymentStatusPaid
		b.PaymentMethod = &method

		if err := s.settleEarnings(ctx, b.ID, entity.EarningsStatusPaid, now); err != nil {
			return err
		}

		_, err = s.rewards.Award(ctx, b.GuestID, due, b.ID)
		return err
	}, withDuplicatePaymentCheck(), withLapsedHoldCheck("payment"))
	if lapsed {
		s.expireAfterFailure(ctx, bookingID)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("Payment recorded",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.Float64("amount", booking.TotalAmount),
		zap.Int64("points_redeemed", booking.PointsRedeemed),
	)

	sendNotification(ctx, s.notifier, s.log, booking.OwnerID, s.message(notify.EventBookingConfirmed, booking,
		"Booking confirmed",
		fmt.Sprintf("Booking %s has been paid and is confirmed.", booking.Reference)))

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) CheckIn(ctx context.Context, ownerID, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.transition(ctx, ownerID, bookingID, ActionCheckIn, func(_ context.Context, b *entity.Booking, _ time.Time) error {
		if b.PaymentStatus != entity.PaymentStatusPaid {
			return &InvalidTransitionError{From: b.Status, Attempted: ActionCheckIn, Reason: "booking is not paid"}
		}
		b.Status = entity.BookingStatusCheckedIn
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) CheckOut(ctx context.Context, ownerID, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.transition(ctx, ownerID, bookingID, ActionCheckOut, func(_ context.Context, b *entity.Booking, _ time.Time) error {
		b.Status = entity.BookingStatusCheckedOut
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// Cancel is idempotent: a booking that is already cancelled is returned
// unchanged.
func (s *bookingService) Cancel(ctx context.Context, actorID, bookingID, reason string) (*response.BookingResponse, error) {
	actor, err := parseID("user", actorID)
	if err != nil {
		return nil, err
	}

	var already bool
	booking, err := s.transition(ctx, actorID, bookingID, ActionCancel, func(ctx context.Context, b *entity.Booking, now time.Time) error {
		if !b.CheckInDate.After(utils.StartOfDay(now)) {
			return &InvalidTransitionError{From: b.Status, Attempted: ActionCancel, Reason: "check-in date has been reached"}
		}
		return s.cancel(ctx, b, reason, now)
	}, withIdempotentCancel(&already))
	if err != nil {
		return nil, err
	}

	if !already {
		recipient := booking.OwnerID
		if actor == booking.OwnerID {
			recipient = booking.GuestID
		}
		sendNotification(ctx, s.notifier, s.log, recipient, s.message(notify.EventBookingCancelled, booking,
			"Booking cancelled",
			fmt.Sprintf("Booking %s was cancelled: %s", booking.Reference, reason)))
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) Expire(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var booking *entity.Booking
	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.Booking.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return &NotFoundError{Resource: "booking", ID: bookingID.String()}
		}

		now := s.now()
		if !b.HoldLapsed(now) {
			return nil
		}
		if _, err := nextStatus(ActionExpire, b.Status); err != nil {
			return nil
		}

		reason := reasonResponseExpired
		if b.AcceptedAt != nil {
			reason = reasonPaymentExpired
		}
		if err := s.cancel(ctx, b, reason, now); err != nil {
			return err
		}
		b.UpdatedAt = now
		if err := s.repo.Booking.Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		s.log.Error("Failed to expire booking", zap.Error(err), zap.String("booking_id", bookingID.String()))
		return false, err
	}
	if booking == nil {
		return false, nil
	}

	s.log.Info("Booking expired",
		zap.String("booking_id", booking.ID.String()),
		zap.String("reference", booking.Reference),
		zap.String("reason", *booking.CancellationReason),
	)

	sendNotification(ctx, s.notifier, s.log, booking.GuestID, s.message(notify.EventBookingExpired, booking,
		"Booking expired",
		fmt.Sprintf("Booking %s was released: %s.", booking.Reference, *booking.CancellationReason)))
	return true, nil
}

// cancel applies the effects shared by guest, owner and sweeper
// cancellations to a locked booking. The caller persists b.
func (s *bookingService) cancel(ctx context.Context, b *entity.Booking, reason string, now time.Time) error {
	b.Status = entity.BookingStatusCancelled
	b.CancelledAt = &now
	b.CancellationReason = &reason

	if _, err := s.ledger.CancelOpenEntries(ctx, b.ID); err != nil {
		return err
	}

	if b.PointsRedeemed > 0 {
		if _, err := s.rewards.Refund(ctx, b.GuestID, b.ID); err != nil {
			return err
		}
	}

	earnings := entity.EarningsStatusCancelled
	if b.PaymentStatus == entity.PaymentStatusPaid {
		if _, err := s.ledger.PostRefund(ctx, b.ID, b.TotalAmount, b.Reference+"-RF"); err != nil {
			return err
		}
		b.PaymentStatus = entity.PaymentStatusRefunded
		earnings = entity.EarningsStatusRefunded
	}

	return s.settleEarnings(ctx, b.ID, earnings, now)
}

func (s *bookingService) settleEarnings(ctx context.Context, bookingID uuid.UUID, status entity.EarningsStatus, now time.Time) error {
	earnings, err := s.repo.Earnings.FindByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if earnings == nil {
		return nil
	}

	earnings.Status = status
	earnings.UpdatedAt = now
	if status == entity.EarningsStatusPaid {
		earnings.PaidAt = &now
	}
	return s.repo.Earnings.Update(ctx, earnings)
}

// ==================== TRANSITION PLUMBING ====================

type mutation func(ctx context.Context, b *entity.Booking, now time.Time) error

type transitionOptions struct {
	alreadyCancelled *bool
	duplicatePayment bool
	lapsedWindow     string
}

type transitionOption func(*transitionOptions)

func withIdempotentCancel(flag *bool) transitionOption {
	return func(o *transitionOptions) { o.alreadyCancelled = flag }
}

// withDuplicatePaymentCheck reports a second payment for a paid booking as
// a payment mismatch rather than a state error.
func withDuplicatePaymentCheck() transitionOption {
	return func(o *transitionOptions) { o.duplicatePayment = true }
}

// withLapsedHoldCheck reports an action on a booking that was already
// expired for window ("payment" or "response") as a deadline error.
func withLapsedHoldCheck(window string) transitionOption {
	return func(o *transitionOptions) { o.lapsedWindow = window }
}

// lapsedDeadline returns the deadline whose expiry cancelled b, or nil when
// b was not expired for window.
func lapsedDeadline(b *entity.Booking, window string) *time.Time {
	if b.Status != entity.BookingStatusCancelled || b.PaymentStatus != entity.PaymentStatusUnpaid || b.CancellationReason == nil {
		return nil
	}
	switch {
	case window == "payment" && *b.CancellationReason == reasonPaymentExpired:
		return b.PaymentDeadline
	case window == "response" && *b.CancellationReason == reasonResponseExpired:
		return b.ResponseDeadline
	}
	return nil
}

// transition locks the booking, checks the actor and the transition table,
// runs mutate, and persists the result, all in one transaction.
func (s *bookingService) transition(ctx context.Context, actorID, bookingID string, action Action, mutate mutation, opts ...transitionOption) (*entity.Booking, error) {
	var o transitionOptions
	for _, opt := range opts {
		opt(&o)
	}

	actor, err := parseID("user", actorID)
	if err != nil {
		return nil, err
	}
	id, err := parseID("booking", bookingID)
	if err != nil {
		return nil, err
	}

	var booking *entity.Booking
	err = s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.Booking.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return &NotFoundError{Resource: "booking", ID: bookingID}
		}
		if err := authorize(action, b, actor); err != nil {
			return err
		}

		if o.lapsedWindow != "" {
			if deadline := lapsedDeadline(b, o.lapsedWindow); deadline != nil {
				return &DeadlineExpiredError{BookingID: b.ID, Window: o.lapsedWindow, Deadline: *deadline}
			}
		}

		if o.alreadyCancelled != nil && b.Status == entity.BookingStatusCancelled {
			*o.alreadyCancelled = true
			booking = b
			return nil
		}

		if o.duplicatePayment && b.PaymentStatus != entity.PaymentStatusUnpaid {
			s.log.Error("Ledger consistency alarm",
				zap.String("booking_id", b.ID.String()),
				zap.String("payment_status", string(b.PaymentStatus)),
			)
			return &PaymentMismatchError{BookingID: b.ID, Reason: "booking is already " + string(b.PaymentStatus), Expected: 0, Got: b.TotalAmount}
		}

		to, err := nextStatus(action, b.Status)
		if err != nil {
			return err
		}

		now := s.now()
		if err := mutate(ctx, b, now); err != nil {
			return err
		}
		b.Status = to
		b.UpdatedAt = now

		if err := s.repo.Booking.Update(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		s.logFailure(string(action), err, zap.String("booking_id", bookingID), zap.String("actor_id", actorID))
		return nil, err
	}

	if o.alreadyCancelled == nil || !*o.alreadyCancelled {
		s.log.Info("Booking transitioned",
			zap.String("booking_id", booking.ID.String()),
			zap.String("action", string(action)),
			zap.String("status", string(booking.Status)),
		)
	}
	return booking, nil
}

func authorize(action Action, b *entity.Booking, actor uuid.UUID) error {
	switch transitions[action].actor {
	case roleOwner:
		if actor == b.OwnerID {
			return nil
		}
	case roleGuest:
		if actor == b.GuestID {
			return nil
		}
	case roleParty:
		if actor == b.OwnerID || actor == b.GuestID {
			return nil
		}
	}
	return &ForbiddenError{Action: action.verb() + " booking " + b.Reference}
}

// expireAfterFailure applies the sweeper's cancellation when a request
// found the hold already lapsed.
func (s *bookingService) expireAfterFailure(ctx context.Context, bookingID string) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return
	}
	if _, err := s.Expire(context.WithoutCancel(ctx), id); err != nil {
		s.log.Error("Failed to expire lapsed booking",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
	}
}

func (s *bookingService) logFailure(operation string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err), zap.String("kind", KindOf(err).String()))
	switch KindOf(err) {
	case KindInternal:
		s.log.Error("Failed to "+operation, fields...)
	case KindPaymentMismatch:
		s.log.Error(operation+" rejected by ledger", fields...)
	default:
		s.log.Warn(operation+" rejected", fields...)
	}
}

func (s *bookingService) message(event string, b *entity.Booking, subject, body string) notify.Message {
	return notify.Message{
		Event:     event,
		BookingID: b.ID,
		Reference: b.Reference,
		Subject:   subject,
		Body:      body,
	}
}

func parseID(resource, value string) (uuid.UUID, error) {
	id, err := utils.ParseUUID(value)
	if err != nil {
		return uuid.Nil, &ValidationError{Message: fmt.Sprintf("invalid %s ID format %s", resource, value)}
	}
	return id, nil
}

func (p PricingBreakdown) toResponse() response.PricingResponse {
	return response.PricingResponse{
		Nights:           p.Nights,
		NightlyRate:      p.NightlyRate,
		Subtotal:         p.Subtotal,
		ServiceFee:       p.ServiceFee,
		TaxAmount:        p.TaxAmount,
		Total:            p.Total,
		DiscountAmount:   p.DiscountAmount,
		FinalTotal:       p.FinalTotal,
		CommissionRate:   p.CommissionRate,
		CommissionAmount: p.CommissionAmount,
		OwnerEarnings:    p.OwnerEarnings,
		CouponCode:       p.CouponCode,
		CouponRejected:   p.CouponRejected,
	}
}
