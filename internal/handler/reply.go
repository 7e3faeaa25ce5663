package handler

import (
	"net/http"

	"github.com/sakif/whispering-network/internal/service"
)

type createReplyRequest struct {
	MessageID int64  `json:"messageId" validate:"required,gt=0"`
	Content   string `json:"content" validate:"required,notblank,max=2000"`
	Nickname  string `json:"nickname" validate:"required,notblank,max=50"`
}

// HandleCreateReply attaches a reply to a message. A messageId that does not
// reference a message is a 400 on messageId.
//
// HTTP: POST /api/replies
// REQUEST BODY: {"messageId":1,"content":"hang in there","nickname":"ana"}
func (h *MessageHandler) HandleCreateReply(w http.ResponseWriter, r *http.Request) {
	var req createReplyRequest
	if err := decodeJSON(w, r, &req, "Invalid reply data"); err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := h.messages.CreateReply(r.Context(), service.CreateReplyInput{
		MessageID: req.MessageID,
		Content:   req.Content,
		Nickname:  req.Nickname,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// HandleListReplies returns the replies to one message, newest first.
//
// HTTP: GET /api/messages/{id}/replies
func (h *MessageHandler) HandleListReplies(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	replies, err := h.messages.ListReplies(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replies)
}
