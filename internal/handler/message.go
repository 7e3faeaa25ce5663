package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/whispering-network/internal/service"
)

// MessageHandler serves the message and reply endpoints.
type MessageHandler struct {
	messages *service.MessageService
}

func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type createMessageRequest struct {
	Content     string  `json:"content" validate:"required,notblank,max=5000"`
	Category    string  `json:"category" validate:"required,notblank,max=64"`
	SpotifyLink *string `json:"spotifyLink" validate:"omitempty,url,max=500"`
	IsPublic    *bool   `json:"isPublic"`
	Recipient   *string `json:"recipient" validate:"omitempty,max=100"`
	SenderName  *string `json:"senderName" validate:"omitempty,max=100"`
}

// normalize drops optional strings that are blank, so an empty form field
// is treated the same as an omitted one.
func (req *createMessageRequest) normalize() {
	req.SpotifyLink = blankToNil(req.SpotifyLink)
	req.Recipient = blankToNil(req.Recipient)
	req.SenderName = blankToNil(req.SenderName)
}

type updateVisibilityRequest struct {
	IsPublic *bool `json:"isPublic" validate:"required"`
}

// HandleListPublic returns every public message with its replies.
//
// HTTP: GET /api/messages/public
func (h *MessageHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.ListPublic(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// HandleListPrivate returns every private message with its replies.
//
// HTTP: GET /api/messages/private
func (h *MessageHandler) HandleListPrivate(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.ListPrivate(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// HTTP: GET /api/messages/category/{category}
func (h *MessageHandler) HandleListByCategory(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// HTTP: GET /api/messages/recipient/{recipient}
func (h *MessageHandler) HandleListByRecipient(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.ListByRecipient(r.Context(), chi.URLParam(r, "recipient"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// HandleCreate stores a new message.
//
// HTTP: POST /api/messages
// REQUEST BODY: {"content":"hi","category":"hope","isPublic":false,"recipient":"Admin"}
// RESPONSE: 201 with the created message; isPublic defaults to true.
func (h *MessageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := decodeJSON(w, r, &req, "Invalid message data"); err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.messages.Create(r.Context(), service.CreateMessageInput{
		Content:     req.Content,
		Category:    req.Category,
		SpotifyLink: req.SpotifyLink,
		IsPublic:    req.IsPublic,
		Recipient:   req.Recipient,
		SenderName:  req.SenderName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleUpdateVisibility sets isPublic on one message.
//
// HTTP: PATCH /api/messages/{id}
// REQUEST BODY: {"isPublic":true}
// RESPONSE: 200 with the updated message, 404 when the id does not exist.
func (h *MessageHandler) HandleUpdateVisibility(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateVisibilityRequest
	if err := decodeJSON(w, r, &req, "Invalid message data"); err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.messages.SetVisibility(r.Context(), id, *req.IsPublic)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
