package usecase

import (
	"context"
	"time"

	"rental-booking/internal/data/repository"
	"rental-booking/internal/dto/request"
	"rental-booking/internal/dto/response"
	"rental-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService decides whether a property's dates are free.
type AvailabilityService interface {
	IsAvailable(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time) (bool, error)
	// AssertAvailable locks the property calendar for the surrounding
	// transaction and fails with ConflictError on any active overlap.
	// excludeID skips one booking, the one being re-checked.
	AssertAvailable(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time, excludeID uuid.UUID) error
	Check(ctx context.Context, propertyID string, req *request.AvailabilityRequest) (*response.AvailabilityResponse, error)
}

type availabilityService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  Clock
}

func NewAvailabilityService(repo *repository.Repository, log *zap.Logger, clock Clock) AvailabilityService {
	return &availabilityService{
		repo: repo,
		log:  log.With(zap.String("service", "availability")),
		now:  clock,
	}
}

func (s *availabilityService) IsAvailable(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time) (bool, error) {
	if err := validateRange(checkIn, checkOut); err != nil {
		return false, err
	}

	overlapping, err := s.repo.Booking.FindActiveOverlapping(ctx, propertyID, checkIn, checkOut, s.now(), uuid.Nil)
	if err != nil {
		return false, err
	}
	return len(overlapping) == 0, nil
}

func (s *availabilityService) AssertAvailable(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut time.Time, excludeID uuid.UUID) error {
	if err := validateRange(checkIn, checkOut); err != nil {
		return err
	}

	return s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Booking.LockProperty(ctx, propertyID); err != nil {
			return err
		}

		overlapping, err := s.repo.Booking.FindActiveOverlapping(ctx, propertyID, checkIn, checkOut, s.now(), excludeID)
		if err != nil {
			return err
		}
		if len(overlapping) == 0 {
			return nil
		}

		refs := make([]string, 0, len(overlapping))
		for _, b := range overlapping {
			refs = append(refs, b.Reference)
		}
		s.log.Info("Dates unavailable",
			zap.String("property_id", propertyID.String()),
			zap.Time("check_in", checkIn),
			zap.Time("check_out", checkOut),
			zap.Strings("conflicting", refs),
		)
		return &ConflictError{
			PropertyID:  propertyID,
			CheckIn:     checkIn,
			CheckOut:    checkOut,
			Conflicting: refs,
		}
	})
}

func (s *availabilityService) Check(ctx context.Context, propertyID string, req *request.AvailabilityRequest) (*response.AvailabilityResponse, error) {
	id, err := parseID("property", propertyID)
	if err != nil {
		return nil, err
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	property, err := s.repo.Property.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if property == nil || !property.IsActive {
		return nil, &NotFoundError{Resource: "property", ID: propertyID}
	}

	available, err := s.IsAvailable(ctx, id, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	return &response.AvailabilityResponse{
		PropertyID: id.String(),
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Available:  available,
	}, nil
}

func validateRange(checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return &InvalidRangeError{Reason: "check-out must be after check-in"}
	}
	return nil
}

// parseStay parses a YYYY-MM-DD pair into a validated half-open range.
func parseStay(checkInStr, checkOutStr string) (time.Time, time.Time, error) {
	checkIn, err := utils.ParseDate(checkInStr)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{
			Message: "invalid check-in date",
			Fields:  map[string]string{"check_in": "Must be a date in " + utils.DateLayout + " format"},
		}
	}
	checkOut, err := utils.ParseDate(checkOutStr)
	if err != nil {
		return time.Time{}, time.Time{}, &ValidationError{
			Message: "invalid check-out date",
			Fields:  map[string]string{"check_out": "Must be a date in " + utils.DateLayout + " format"},
		}
	}
	if err := validateRange(checkIn, checkOut); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}
