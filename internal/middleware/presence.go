package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

type PresenceToucher interface {
	TouchPresence(ctx context.Context, userID string) error
}

// PresenceTouch stamps the authenticated caller available once the wrapped
// handler has responded, so the handler sees the state from before the
// request. Failures are logged and never affect the response.
func PresenceTouch(p PresenceToucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			userID := UserID(r.Context())
			if userID == "" {
				return
			}
			if err := p.TouchPresence(r.Context(), userID); err != nil {
				observability.GetLogger(r.Context()).Debug("presence touch failed",
					zap.String("user_id", userID),
					zap.Error(err))
			}
		})
	}
}
