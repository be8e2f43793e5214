package handler

import (
	"context"
	"log"
	"time"

	"safemove/model"
	"safemove/utils"

	"github.com/gin-gonic/gin"
)

// Count slices of the repositories; the dashboard only aggregates
type StudentCounter interface {
	CountStudents(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type ExtensionCounter interface {
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type EmergencyCounter interface {
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

type DashboardHandler struct {
	studentsRepo    StudentCounter
	extensionsRepo  ExtensionCounter
	emergenciesRepo EmergencyCounter
}

func NewDashboardHandler(
	studentsRepo StudentCounter,
	extensionsRepo ExtensionCounter,
	emergenciesRepo EmergencyCounter,
) *DashboardHandler {
	return &DashboardHandler{
		studentsRepo:    studentsRepo,
		extensionsRepo:  extensionsRepo,
		emergenciesRepo: emergenciesRepo,
	}
}

// GetDashboard aggregates the counts the admin landing page shows
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	totalStudents, err := h.studentsRepo.CountStudents(c)
	if err != nil {
		log.Printf("Error counting students: %v", err)
		utils.InternalError(c, "Failed to count students")
		return
	}

	onTrip, err := h.studentsRepo.CountByStatus(c, model.StatusOnTrip)
	if err != nil {
		log.Printf("Error counting students on trip: %v", err)
		utils.InternalError(c, "Failed to count students on trip")
		return
	}

	pendingExtensions, err := h.extensionsRepo.CountByStatus(c, model.ExtensionPending)
	if err != nil {
		log.Printf("Error counting pending extensions: %v", err)
		utils.InternalError(c, "Failed to count pending extension requests")
		return
	}

	recentEmergencies, err := h.emergenciesRepo.CountSince(c, time.Now().Add(-24*time.Hour))
	if err != nil {
		log.Printf("Error counting emergencies: %v", err)
		utils.InternalError(c, "Failed to count emergencies")
		return
	}

	utils.Success(c, gin.H{
		"totalStudents":     totalStudents,
		"studentsOnTrip":    onTrip,
		"studentsInside":    totalStudents - onTrip,
		"pendingExtensions": pendingExtensions,
		"recentEmergencies": recentEmergencies,
	})
}
