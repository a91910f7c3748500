// internal/handler/notification.go
package handler

import (
	"net/http"
	"strconv"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/dangerclosesec/pathway/internal/service"
)

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type NotificationListResponse struct {
	BaseResponse
	Notifications []*model.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	out, err := h.notifications.List(r.Context(), user.ID, service.ListNotificationsInput{
		UnreadOnly: unreadOnly,
		Type:       model.NotificationType(r.URL.Query().Get("type")),
		Offset:     queryInt(r, "offset", 0),
		Limit:      queryInt(r, "limit", 0),
	})
	if err != nil {
		respondWithServiceError(w, r, "Notification listing error", err)
		return
	}

	notifications := out.Notifications
	if notifications == nil {
		notifications = []*model.Notification{}
	}
	respondWithJSON(w, http.StatusOK, NotificationListResponse{
		BaseResponse:  BaseResponse{Ok: true},
		Notifications: notifications,
		Unread:        out.Unread,
	})
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	n, err := h.notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, r, "Unread count error", err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]int64{"unread": n})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), user.ID, id); err != nil {
		respondWithServiceError(w, r, "Mark read error", err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	n, err := h.notifications.MarkAllRead(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, r, "Mark all read error", err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.notifications.Delete(r.Context(), user.ID, id); err != nil {
		respondWithServiceError(w, r, "Notification deletion error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
