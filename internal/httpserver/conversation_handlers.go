package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillswap/internal/service"
)

type conversationCreateRequest struct {
	ParticipantID string `json:"participantId"`
}

func handleCreateConversation(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req conversationCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}

		id, err := msgSvc.CreateOrGetConversation(r.Context(), req.ParticipantID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		conv, err := msgSvc.Conversation(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleListConversations(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := msgSvc.Conversations(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, convs)
	}
}

func handleGetConversation(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv, err := msgSvc.Conversation(r.Context(), chi.URLParam(r, "conversationID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, conv)
	}
}

func handleMarkConversationRead(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := msgSvc.MarkAsRead(r.Context(), chi.URLParam(r, "conversationID")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}
