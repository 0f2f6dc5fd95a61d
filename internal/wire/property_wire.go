package wire

import (
	"rental-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireProperty(r chi.Router, propertyHandler *adaptor.PropertyHandler) {
	// GET /api/properties/{id}/availability - Calendar check (public)
	r.Get("/api/properties/{id}/availability", propertyHandler.GetAvailability)
}
