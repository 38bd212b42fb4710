package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
	"github.com/SARVESHVARADKAR123/RealChat/internal/transport"
)

// TokenVerifier validates HMAC-signed access tokens and yields their subject.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewTokenVerifier(secret, issuer, audience string) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &TokenVerifier{secret: []byte(secret), parser: jwt.NewParser(opts...)}
}

func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: invalid token", domain.ErrUnauthenticated)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: invalid token claims", domain.ErrUnauthenticated)
	}
	return sub, nil
}

// Authenticate resolves the caller of r from its bearer header or token query parameter.
func (v *TokenVerifier) Authenticate(r *http.Request) (string, error) {
	tokenString, err := ExtractToken(r)
	if err != nil {
		return "", err
	}
	return v.Verify(tokenString)
}

// ExtractToken reads "Authorization: Bearer <token>", falling back to
// ?token= for browser websocket clients that cannot set headers.
func ExtractToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", fmt.Errorf("%w: invalid token format", domain.ErrUnauthenticated)
		}
		return parts[1], nil
	}

	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok, nil
	}
	return "", fmt.Errorf("%w: missing token", domain.ErrUnauthenticated)
}

func JWT(v *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, err := v.Authenticate(r)
			if err != nil {
				observability.GetLogger(r.Context()).Debug("jwt_rejected",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Error(err))
				transport.WriteError(w, http.StatusUnauthorized, transport.CodeUnauthorized, "authentication required")
				return
			}

			ctx := InjectUserID(r.Context(), sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
