package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/SARVESHVARADKAR123/RealChat/internal/application"
	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
	"github.com/SARVESHVARADKAR123/RealChat/internal/middleware"
	"github.com/SARVESHVARADKAR123/RealChat/internal/transport"
)

type Messaging interface {
	SendMessage(ctx context.Context, cmd application.SendMessageCommand) (*domain.Message, error)
	SendTyping(ctx context.Context, userID, convID string, typing bool) error
	ListMessages(ctx context.Context, userID, convID string) ([]*domain.Message, error)
	SaveDraft(ctx context.Context, userID, convID, text string) error
	GetDraft(ctx context.Context, userID, convID string) (string, error)
	Inbox(ctx context.Context, userID, activeID string) (*application.Inbox, error)
}

type MessagingHandler struct {
	svc Messaging
}

func NewMessagingHandler(svc Messaging) *MessagingHandler {
	return &MessagingHandler{svc: svc}
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Text           string `json:"text"`
}

func (req *sendMessageRequest) bindForm(v url.Values) {
	req.ConversationID = v.Get("conversation_id")
	req.Text = v.Get("text")
}

func (h *MessagingHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !bind(w, r, &req) {
		return
	}

	msg, err := h.svc.SendMessage(r.Context(), application.SendMessageCommand{
		UserID:         middleware.UserID(r.Context()),
		ConversationID: req.ConversationID,
		Text:           req.Text,
		Source:         application.SourceHTTP,
	})
	if err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusCreated, msg)
}

func (h *MessagingHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	convID := r.URL.Query().Get("conversation_id")
	if convID == "" {
		transport.WriteError(w, http.StatusBadRequest, transport.CodeMissingConversationID, "conversation_id query parameter is required")
		return
	}

	msgs, err := h.svc.ListMessages(r.Context(), middleware.UserID(r.Context()), convID)
	if err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}

	transport.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type typingRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Typing         any    `json:"typing"`
}

func (req *typingRequest) bindForm(v url.Values) {
	req.ConversationID = v.Get("conversation_id")
	req.Typing = v.Get("typing")
}

// Typing is the fallback for clients without a live channel.
// Values outside the token vocabulary mean "not typing".
func (h *MessagingHandler) Typing(w http.ResponseWriter, r *http.Request) {
	var req typingRequest
	if !bind(w, r, &req) {
		return
	}

	typing, _ := domain.ParseBoolValue(req.Typing)
	if err := h.svc.SendTyping(r.Context(), middleware.UserID(r.Context()), req.ConversationID, typing); err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type draftRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Text           string `json:"text"`
}

func (req *draftRequest) bindForm(v url.Values) {
	req.ConversationID = v.Get("conversation_id")
	req.Text = v.Get("text")
}

func (h *MessagingHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !bind(w, r, &req) {
		return
	}

	if err := h.svc.SaveDraft(r.Context(), middleware.UserID(r.Context()), req.ConversationID, req.Text); err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *MessagingHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	convID := r.URL.Query().Get("conversation_id")
	if convID == "" {
		transport.WriteError(w, http.StatusBadRequest, transport.CodeMissingConversationID, "conversation_id query parameter is required")
		return
	}

	text, err := h.svc.GetDraft(r.Context(), middleware.UserID(r.Context()), convID)
	if err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *MessagingHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	inbox, err := h.svc.Inbox(r.Context(), middleware.UserID(r.Context()), r.URL.Query().Get("conversation"))
	if err != nil {
		transport.WriteDomainError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, inbox)
}
