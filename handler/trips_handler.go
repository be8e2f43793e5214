package handler

import (
	"errors"

	"safemove/dto"
	"safemove/usecase"
	"safemove/utils"

	"github.com/gin-gonic/gin"
)

// PlanTripHandler mints a session for a student and returns the QR payload
// the scanning client decodes
func PlanTripHandler(c *gin.Context, tripService *usecase.TripService) {
	var req dto.PlanTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Student ID and a positive duration are required")
		return
	}

	trip, err := tripService.PlanTrip(c, req.StudentID, req.DurationHours)
	if err != nil {
		if errors.Is(err, usecase.ErrStudentNotFound) {
			utils.NotFound(c, "Student not found")
			return
		}
		utils.BadRequest(c, err.Error())
		return
	}

	utils.Created(c, trip)
}

// DecodeTripPayloadHandler verifies a scanned payload round-trips and
// reports its countdown state
func DecodeTripPayloadHandler(c *gin.Context, tripService *usecase.TripService) {
	var req dto.DecodePayloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Payload is required")
		return
	}

	decoded, err := tripService.DecodePayload(req.Payload)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.Success(c, decoded)
}

func EndTripHandler(c *gin.Context, tripService *usecase.TripService) {
	if err := tripService.EndTrip(c, c.Param("studentId")); err != nil {
		if errors.Is(err, usecase.ErrStudentNotFound) {
			utils.NotFound(c, "Student not found")
			return
		}
		utils.InternalError(c, "Failed to end trip")
		return
	}

	utils.Success(c, gin.H{
		"message": "Trip ended successfully",
	})
}
