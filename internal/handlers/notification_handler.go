package handlers

import (
	"net/http"

	"github.com/foodbridge/foodbridge/internal/services"
	"github.com/foodbridge/foodbridge/pkg/httpapi"
	"github.com/foodbridge/foodbridge/pkg/middleware"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationHandler struct {
	Service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

// GET /notifications
func (h *NotificationHandler) GetUserNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	notifications, err := h.Service.GetUserNotifications(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch notifications")
		httpapi.Err(w, err)
		return
	}

	httpapi.JSON(w, http.StatusOK, notifications, "Notifications fetched successfully")
}

// POST /notifications/{id}/read
func (h *NotificationHandler) MarkAsReadHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		httpapi.Err(w, httpapi.Unauthorized("Unauthorized request"))
		return
	}

	notifID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		httpapi.Err(w, httpapi.BadRequest("Invalid notification ID"))
		return
	}

	if err := h.Service.MarkNotificationAsRead(r.Context(), notifID, userID); err != nil {
		httpapi.Err(w, err)
		return
	}

	httpapi.JSON(w, http.StatusOK, map[string]interface{}{}, "Notification marked as read")
}
