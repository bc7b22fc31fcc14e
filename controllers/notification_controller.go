package controllers

import (
	"net/http"
	"strconv"

	"mealplanner/services"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Notifications *services.NotificationService
	Push          *services.PushService
}

func NewNotificationController(ns *services.NotificationService, ps *services.PushService) *NotificationController {
	return &NotificationController{Notifications: ns, Push: ps}
}

type toggleReq struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// GET /api/notifications?limit=
func (nc *NotificationController) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := nc.Notifications.List(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// POST /api/notifications/toggle
func (nc *NotificationController) Toggle(c *gin.Context) {
	var req toggleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := nc.Push.SetEnabled(c.Request.Context(), currentUserID(c), *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "notifications updated",
		"enabled": *req.Enabled,
	})
}
