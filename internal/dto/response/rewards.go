package response

import (
	"time"

	"rental-booking/internal/data/entity"
)

type WalletResponse struct {
	UserID         string `json:"user_id"`
	CurrentBalance int64  `json:"current_balance"`
	TotalEarned    int64  `json:"total_earned"`
	LifetimeSpent  int64  `json:"lifetime_spent"`
}

type RewardsTransactionResponse struct {
	ID           string                        `json:"id"`
	Type         entity.RewardsTransactionType `json:"type"`
	Points       int64                         `json:"points"`
	BalanceAfter int64                         `json:"balance_after"`
	BookingID    *string                       `json:"booking_id,omitempty"`
	Description  string                        `json:"description"`
	CreatedAt    time.Time                     `json:"created_at"`
}

type RedeemableResponse struct {
	Amount         float64 `json:"amount"`
	MaxRedeemable  int64   `json:"max_redeemable"`
	DiscountAmount float64 `json:"discount_amount"`
}

type ReconcileResponse struct {
	UserID           string `json:"user_id"`
	CachedBalance    int64  `json:"cached_balance"`
	ReplayedBalance  int64  `json:"replayed_balance"`
	Drift            int64  `json:"drift"`
	Repaired         bool   `json:"repaired"`
	TransactionCount int    `json:"transaction_count"`
}

func WalletToResponse(a *entity.RewardsAccount) WalletResponse {
	return WalletResponse{
		UserID:         a.UserID.String(),
		CurrentBalance: a.CurrentBalance,
		TotalEarned:    a.TotalEarned,
		LifetimeSpent:  a.LifetimeSpent,
	}
}

func RewardsTransactionToResponse(t *entity.RewardsTransaction) RewardsTransactionResponse {
	resp := RewardsTransactionResponse{
		ID:           t.ID.String(),
		Type:         t.Type,
		Points:       t.Points,
		BalanceAfter: t.BalanceAfter,
		Description:  t.Description,
		CreatedAt:    t.CreatedAt,
	}
	if t.BookingID != nil {
		id := t.BookingID.String()
		resp.BookingID = &id
	}
	return resp
}
