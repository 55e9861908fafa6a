package handlers

import (
	"net/http"

	"github.com/itsDrac/e-auc-live/internal/service"
)

const notificationParamKey = "notificationId"

type NotificationHandler struct {
	svc   service.NotificationServicer
	debug bool
}

func NewNotificationHandler(svc service.NotificationServicer, debug bool) (*NotificationHandler, error) {
	return &NotificationHandler{
		svc:   svc,
		debug: debug,
	}, nil
}

// ListNotifications godoc
//
//	@Summary		List my notifications
//	@Description	Newest first, capped
//	@Tags			Notifications
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Router			/notifications [get]
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.svc.ListNotifications(r.Context(), userID)
	if err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	resp := map[string]any{
		"notifications": list,
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Notifications fetched successfully", resp)
}

// MarkRead godoc
//
//	@Summary		Mark a notification as read
//	@Tags			Notifications
//	@Security		BearerAuth
//	@Produce		json
//	@Param			notificationId	path		string	true	"Notification ID"
//	@Success		200				{object}	map[string]any
//	@Failure		404				{object}	map[string]any
//	@Router			/notifications/{notificationId}/read [patch]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID, ok := uuidParam(w, r, notificationParamKey)
	if !ok {
		return
	}
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.svc.MarkRead(r.Context(), notificationID, userID); err != nil {
		RespondServiceError(w, r, err, h.debug)
		return
	}
	RespondSuccessJSON(w, r, http.StatusOK, "Notification marked as read", "")
}
