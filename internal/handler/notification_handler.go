package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xolanidube/mzansi-market-sub000/internal/middleware"
	"github.com/xolanidube/mzansi-market-sub000/internal/models"
	"github.com/xolanidube/mzansi-market-sub000/internal/service"
)

type NotificationHandler struct {
	notifier *service.NotificationService
}

func NewNotificationHandler(notifier *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// List handles GET /notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	page, limit := parsePagination(c)
	list, total, err := h.notifier.ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.notifier.MarkRead(c.Request.Context(), uint(id), userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
