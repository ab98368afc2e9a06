package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/auth"
)

type NotificationHandler struct {
	api   *apiclient.Client
	store *auth.CookieStore
}

func NewNotificationHandler(api *apiclient.Client, store *auth.CookieStore) *NotificationHandler {
	return &NotificationHandler{api: api, store: store}
}

func (h *NotificationHandler) List(c *gin.Context) {
	list, err := remote(c, h.api).Notifications(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to load notifications")
		return
	}
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	if list == nil {
		list = []apiclient.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	n, err := remote(c, h.api).MarkNotificationRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to update notification")
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	resp, err := remote(c, h.api).MarkAllNotificationsRead(c.Request.Context())
	if err != nil {
		respondAPIError(c, h.store, err, "Failed to update notifications")
		return
	}
	c.JSON(http.StatusOK, resp)
}
