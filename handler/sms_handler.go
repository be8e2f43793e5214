package handler

import (
	"safemove/dto"
	"safemove/services"
	"safemove/utils"

	"github.com/gin-gonic/gin"
)

// SendSMSHandler pushes an alert through the configured SMS provider
func SendSMSHandler(c *gin.Context, sender services.SMSSender) {
	var req dto.SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Phone numbers and message are required")
		return
	}

	if err := sender.Send(req.PhoneNumbers, req.Message); err != nil {
		utils.InternalError(c, "Failed to send SMS")
		return
	}

	utils.Success(c, gin.H{
		"message": "SMS sent",
		"count":   len(req.PhoneNumbers),
	})
}
