package middleware

import (
	"net/http"
	"strings"

	"rental-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActorHeader carries the caller's user id, set by the upstream auth gateway.
const ActorHeader = "X-User-ID"

// Actor puts the authenticated user id on the request context. Requests
// without a valid id are rejected.
func Actor(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(ActorHeader))
			if raw == "" {
				utils.ResponseUnauthorized(w, "Missing "+ActorHeader+" header")
				return
			}

			userID, err := uuid.Parse(raw)
			if err != nil || userID == uuid.Nil {
				logger.Warn("Invalid actor header",
					zap.String("value", raw),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseUnauthorized(w, "Invalid "+ActorHeader+" header")
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.SetUserContext(r.Context(), userID)))
		})
	}
}
