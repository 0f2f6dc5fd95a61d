package adaptor

import (
	"net/http"
	"strconv"

	"rental-booking/internal/usecase"
	"rental-booking/pkg/utils"

	"go.uber.org/zap"
)

type RewardsHandler struct {
	service usecase.RewardsService
	log     *zap.Logger
}

func NewRewardsHandler(service usecase.RewardsService, log *zap.Logger) *RewardsHandler {
	return &RewardsHandler{
		service: service,
		log:     log.With(zap.String("handler", "rewards")),
	}
}

// GetWallet handles GET /api/rewards/wallet
func (h *RewardsHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	wallet, err := h.service.Wallet(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get wallet")
		return
	}

	utils.ResponseSuccess(w, "success", wallet)
}

// GetTransactions handles GET /api/rewards/transactions
func (h *RewardsHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	transactions, err := h.service.Transactions(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get rewards transactions")
		return
	}

	utils.ResponseSuccess(w, "success", transactions)
}

// GetRedeemable handles GET /api/rewards/redeemable?amount=
func (h *RewardsHandler) GetRedeemable(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil || amount < 0 {
		utils.ResponseBadRequest(w, "Validation failed", map[string]string{"amount": "Must be a non-negative number"})
		return
	}

	redeemable, err := h.service.Redeemable(r.Context(), userID, amount)
	if err != nil {
		handleServiceError(w, h.log, err, "get redeemable points")
		return
	}

	utils.ResponseSuccess(w, "success", redeemable)
}

// Reconcile handles POST /api/rewards/reconcile
func (h *RewardsHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	result, err := h.service.Reconcile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "reconcile wallet")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}
