package handler

import (
	"time"

	"safemove/dto"
	"safemove/model"
	"safemove/repository"
	"safemove/utils"

	"github.com/gin-gonic/gin"
)

func CreateEmergencyHandler(c *gin.Context, emergenciesRepo *repository.EmergenciesRepo) {
	var req dto.CreateEmergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Cause is required")
		return
	}

	emergency := &model.Emergency{
		EmergencyID: utils.GenerateID(),
		StudentID:   req.StudentID,
		Cause:       req.Cause,
		CreatedAt:   time.Now(),
	}
	if err := emergenciesRepo.CreateEmergency(c, emergency); err != nil {
		utils.InternalError(c, "Failed to record emergency")
		return
	}

	utils.Created(c, gin.H{
		"message":     "Emergency recorded",
		"emergencyId": emergency.EmergencyID,
	})
}

func ListEmergenciesHandler(c *gin.Context, emergenciesRepo *repository.EmergenciesRepo) {
	emergencies, err := emergenciesRepo.ListRecent(c, 50)
	if err != nil {
		utils.InternalError(c, "Failed to fetch emergencies")
		return
	}

	utils.Success(c, gin.H{
		"emergencies": emergencies,
	})
}
