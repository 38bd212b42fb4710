package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
	"github.com/SARVESHVARADKAR123/RealChat/internal/transport"
)

func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					observability.GetLogger(r.Context()).Error("panic_recovered",
						zap.Any("error", rec),
						zap.String("request_id", RequestIDFromContext(r.Context())),
					)

					transport.WriteError(
						w,
						http.StatusInternalServerError,
						transport.CodeInternal,
						"internal server error",
					)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
