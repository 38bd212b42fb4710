package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/samber/lo"

	"github.com/SARVESHVARADKAR123/RealChat/internal/application"
	"github.com/SARVESHVARADKAR123/RealChat/internal/middleware"
	"github.com/SARVESHVARADKAR123/RealChat/internal/transport"
)

type Presence interface {
	SetPresence(ctx context.Context, userID, token string) (*application.PresenceResult, error)
	ClearPresence(ctx context.Context, userID string) error
	QueryPresence(ctx context.Context, ids []string) (map[string]bool, error)
}

type PresenceHandler struct {
	svc Presence
}

func NewPresenceHandler(svc Presence) *PresenceHandler {
	return &PresenceHandler{svc: svc}
}

type presenceRequest struct {
	Available any `json:"available"`
}

func (req *presenceRequest) bindForm(v url.Values) {
	if raw := v.Get("available"); raw != "" {
		req.Available = raw
	}
}

// SetPresence reads "available" from the body, form or query string.
func (h *PresenceHandler) SetPresence(w http.ResponseWriter, r *http.Request) {
	var req presenceRequest
	if r.ContentLength != 0 || r.Header.Get("Content-Type") != "" {
		if !bind(w, r, &req) {
			return
		}
	}

	token := tokenString(req.Available)
	if token == "" {
		token = r.URL.Query().Get("available")
	}

	res, err := h.svc.SetPresence(r.Context(), middleware.UserID(r.Context()), token)
	if err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, res)
}

// ClearPresence marks the caller unavailable on leave or logout.
func (h *PresenceHandler) ClearPresence(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearPresence(r.Context(), middleware.UserID(r.Context())); err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "available": false})
}

func (h *PresenceHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	ids := lo.FilterMap(strings.Split(r.URL.Query().Get("ids"), ","), func(id string, _ int) (string, bool) {
		id = strings.TrimSpace(id)
		return id, id != ""
	})

	states, err := h.svc.QueryPresence(r.Context(), ids)
	if err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]any{"states": states})
}
