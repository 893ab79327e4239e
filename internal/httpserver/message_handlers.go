package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillswap/internal/service"
)

type messageCreateRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// handleCreateMessage sends to a user rather than to a conversation; the
// conversation is created on first contact.
func handleCreateMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req messageCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}

		msg, err := msgSvc.Send(r.Context(), req.ReceiverID, req.Content)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

func handleListMessages(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := msgSvc.Messages(r.Context(), chi.URLParam(r, "conversationID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	}
}
