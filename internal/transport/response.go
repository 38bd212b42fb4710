package transport

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/RealChat/internal/observability"
)

const (
	CodeInvalidBody           = "invalid_body"
	CodeMissingConversationID = "missing_conversation_id"
	CodeEmptyMessage          = "empty_message"
	CodeInvalidInput          = "invalid_input"
	CodeUnauthorized          = "unauthorized"
	CodeForbidden             = "forbidden"
	CodeNotFound              = "not_found"
	CodeMessageTooLarge       = "message_too_large"
	CodeInternal              = "internal_error"
)

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		observability.GetLogger(context.Background()).Error("failed to encode response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
