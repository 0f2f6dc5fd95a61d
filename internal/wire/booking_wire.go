package wire

import (
	"rental-booking/internal/adaptor"
	"rental-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, log *zap.Logger) {
	actor := middleware.Actor(log)

	// GET /api/user/bookings - Guest's own bookings, newest first
	r.With(actor).Get("/api/user/bookings", bookingHandler.GetUserBookings)

	r.Route("/api/bookings", func(r chi.Router) {
		// POST /api/bookings/quote - Price a stay without reserving it (public)
		r.Post("/quote", bookingHandler.Quote)

		r.Group(func(r chi.Router) {
			r.Use(actor)

			r.Post("/", bookingHandler.CreateBooking)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", bookingHandler.GetBooking)
				r.Get("/ledger", bookingHandler.GetLedger)

				// Owner actions
				r.Patch("/accept", bookingHandler.Accept)
				r.Patch("/checkin", bookingHandler.CheckIn)
				r.Patch("/checkout", bookingHandler.CheckOut)

				// Guest actions
				r.Patch("/payment", bookingHandler.RecordPayment)

				// Either party
				r.Patch("/cancel", bookingHandler.Cancel)
			})
		})
	})
}
