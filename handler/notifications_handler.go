package handler

import (
	"time"

	"safemove/dto"
	"safemove/model"
	"safemove/repository"
	"safemove/utils"

	"github.com/gin-gonic/gin"
)

func CreateNotificationHandler(c *gin.Context, notificationsRepo *repository.NotificationsRepo) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Title is required")
		return
	}

	notification := &model.Notification{
		NotificationID: utils.GenerateID(),
		Title:          req.Title,
		Body:           req.Body,
		CreatedAt:      time.Now(),
	}
	if err := notificationsRepo.CreateNotification(c, notification); err != nil {
		utils.InternalError(c, "Failed to create notification")
		return
	}

	utils.Created(c, gin.H{
		"message":        "Notification created",
		"notificationId": notification.NotificationID,
	})
}

func ListNotificationsHandler(c *gin.Context, notificationsRepo *repository.NotificationsRepo) {
	notifications, err := notificationsRepo.ListNotifications(c)
	if err != nil {
		utils.InternalError(c, "Failed to fetch notifications")
		return
	}

	utils.Success(c, gin.H{
		"notifications": notifications,
	})
}

func MarkNotificationReadHandler(c *gin.Context, notificationsRepo *repository.NotificationsRepo) {
	var req dto.MarkNotificationReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Notification ID is required")
		return
	}

	matched, err := notificationsRepo.MarkRead(c, req.NotificationID)
	if err != nil {
		utils.InternalError(c, "Failed to mark notification read")
		return
	}
	if !matched {
		utils.NotFound(c, "Notification not found")
		return
	}

	utils.Success(c, gin.H{
		"message": "Notification marked read",
	})
}
