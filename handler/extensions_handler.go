package handler

import (
	"errors"
	"fmt"

	"safemove/dto"
	"safemove/usecase"
	"safemove/utils"

	"github.com/gin-gonic/gin"
)

func CreateExtensionHandler(c *gin.Context, extensionService *usecase.ExtensionService) {
	var req dto.CreateExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Missing required fields")
		return
	}

	requestID, err := extensionService.RequestExtension(c, req.StudentID, *req.ExtendMinutes, req.PersonalMessage)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.Created(c, gin.H{
		"message":   "Extension request submitted",
		"requestId": requestID,
	})
}

func ListPendingExtensionsHandler(c *gin.Context, extensionService *usecase.ExtensionService) {
	requests, err := extensionService.ListPending(c)
	if err != nil {
		utils.InternalError(c, "Failed to fetch extension requests")
		return
	}

	utils.Success(c, gin.H{
		"requests": requests,
	})
}

// DecideExtensionHandler approves or rejects one pending request. Deciding
// a decided request reports the conflict instead of silently accepting it.
func DecideExtensionHandler(c *gin.Context, extensionService *usecase.ExtensionService) {
	var req dto.DecideExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request")
		return
	}

	if err := extensionService.Decide(c, req.RequestID, req.Action); err != nil {
		switch {
		case errors.Is(err, usecase.ErrExtensionNotFound):
			utils.NotFound(c, "Extension request not found")
		case errors.Is(err, usecase.ErrExtensionDecided):
			utils.Conflict(c, "Extension request has already been decided")
		default:
			utils.InternalError(c, "Failed to update extension request")
		}
		return
	}

	utils.Success(c, gin.H{
		"message": fmt.Sprintf("Request %sd successfully", req.Action),
	})
}
