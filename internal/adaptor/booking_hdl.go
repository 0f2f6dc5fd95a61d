package adaptor

import (
	"encoding/json"
	"net/http"

	"rental-booking/internal/dto/request"
	"rental-booking/internal/usecase"
	"rental-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), userID.String(), &req)
	if err != nil {
		h.handleServiceError(w, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking requested", booking)
}

// Quote handles POST /api/bookings/quote
func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req request.CreateBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	quote, err := h.service.Quote(r.Context(), &req)
	if err != nil {
		h.handleServiceError(w, err, "quote booking")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := h.service.GetBooking(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// GetLedger handles GET /api/bookings/{id}/ledger
func (h *BookingHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	settlement, err := h.service.GetLedger(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "get booking ledger")
		return
	}

	utils.ResponseSuccess(w, "success", settlement)
}

// GetUserBookings handles GET /api/user/bookings
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	bookings, err := h.service.GetGuestBookings(r.Context(), userID.String(), req)
	if err != nil {
		h.handleServiceError(w, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// Accept handles PATCH /api/bookings/{id}/accept (owner)
func (h *BookingHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := h.service.Accept(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "accept booking")
		return
	}

	utils.ResponseSuccess(w, "Booking accepted", booking)
}

// RecordPayment handles PATCH /api/bookings/{id}/payment (guest)
func (h *BookingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.RecordPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.service.RecordPayment(r.Context(), userID.String(), chi.URLParam(r, "id"), &req)
	if err != nil {
		h.handleServiceError(w, err, "record payment")
		return
	}

	utils.ResponseSuccess(w, "Payment recorded", booking)
}

// CheckIn handles PATCH /api/bookings/{id}/checkin (owner)
func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := h.service.CheckIn(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "check in")
		return
	}

	utils.ResponseSuccess(w, "Guest checked in", booking)
}

// CheckOut handles PATCH /api/bookings/{id}/checkout (owner)
func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	booking, err := h.service.CheckOut(r.Context(), userID.String(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, err, "check out")
		return
	}

	utils.ResponseSuccess(w, "Guest checked out", booking)
}

// Cancel handles PATCH /api/bookings/{id}/cancel (guest or owner)
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CancelBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	booking, err := h.service.Cancel(r.Context(), userID.String(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.handleServiceError(w, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", booking)
}

// decode reads and validates a JSON body, writing the 400 itself on failure.
func (h *BookingHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}

	if validationErrors := utils.ValidateStruct(dst); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return false
	}
	return true
}

func (h *BookingHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	handleServiceError(w, h.log, err, operation)
}
