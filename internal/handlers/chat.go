package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eldtechnologies/jobsearch/internal/apperr"
	"github.com/eldtechnologies/jobsearch/internal/chat"
)

// SendMessageRequest is the POST /api/chat body.
type SendMessageRequest struct {
	SenderID   string `json:"senderId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
	Message    string `json:"message" validate:"required"`
}

// SendMessage runs the same find-or-create-append path as the socket event
// and returns the updated thread.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := h.decode(r, &req); err != nil {
		h.Fail(w, r, err)
		return
	}

	res, err := h.chat.SendMessage(r.Context(), chat.SendInput{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Body:       req.Message,
		Transport:  chat.TransportHTTP,
	})
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusCreated, res.Thread)
}

// HistoryResponse wraps a thread for GET /api/chat/history.
type HistoryResponse struct {
	Chat *chat.HistoryView `json:"chat"`
}

// History returns the thread between the path user and the senderId query
// parameter, with senders resolved to display names.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	senderID := r.URL.Query().Get("senderId")
	if senderID == "" {
		h.Fail(w, r, apperr.Validation("senderId is required"))
		return
	}

	view, err := h.chat.History(r.Context(), userID, senderID)
	if err != nil {
		h.Fail(w, r, err)
		return
	}

	h.JSON(w, http.StatusOK, HistoryResponse{Chat: view})
}
