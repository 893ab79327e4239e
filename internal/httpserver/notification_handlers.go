package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"skillswap/internal/domain"
	"skillswap/internal/service"
)

type notificationListResponse struct {
	Notifications []*domain.Notification `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

func handleListNotifications(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		unread, err := svc.UnreadCount(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, notificationListResponse{Notifications: list, UnreadCount: unread})
	}
}

func handleMarkNotificationRead(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.MarkAsRead(r.Context(), chi.URLParam(r, "notificationID")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMarkAllNotificationsRead(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.MarkAllAsRead(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRemoveNotification(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Remove(r.Context(), chi.URLParam(r, "notificationID")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleClearNotifications(svc *service.NotificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ClearAll(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
