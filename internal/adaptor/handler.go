package adaptor

import (
	"rental-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking  *BookingHandler
	Property *PropertyHandler
	Rewards  *RewardsHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Booking:  NewBookingHandler(service.Booking, log),
		Property: NewPropertyHandler(service.Availability, log),
		Rewards:  NewRewardsHandler(service.Rewards, log),
	}
}
