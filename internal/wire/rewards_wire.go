package wire

import (
	"rental-booking/internal/adaptor"
	"rental-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireRewards(r chi.Router, rewardsHandler *adaptor.RewardsHandler, log *zap.Logger) {
	r.Route("/api/rewards", func(r chi.Router) {
		r.Use(middleware.Actor(log))

		r.Get("/wallet", rewardsHandler.GetWallet)
		r.Get("/transactions", rewardsHandler.GetTransactions)
		r.Get("/redeemable", rewardsHandler.GetRedeemable)
		r.Post("/reconcile", rewardsHandler.Reconcile)
	})
}
