package handler

import (
	"context"
	"time"

	"safemove/relay"
	"safemove/services"
	"safemove/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type StatsHandler struct {
	mongoClient *mongo.Client
	tripCache   *services.TripCache
	hub         *relay.Hub
}

func NewStatsHandler(mongoClient *mongo.Client, tripCache *services.TripCache, hub *relay.Hub) *StatsHandler {
	return &StatsHandler{
		mongoClient: mongoClient,
		tripCache:   tripCache,
		hub:         hub,
	}
}

// GetHealth pings the collaborating stores
func (h *StatsHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	mongoStatus := "ok"
	if h.mongoClient != nil {
		if err := h.mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			mongoStatus = "unreachable"
		}
	} else {
		mongoStatus = "not configured"
	}

	redisStatus := "ok"
	if h.tripCache != nil {
		if err := h.tripCache.Ping(ctx); err != nil {
			redisStatus = "unreachable"
		}
	} else {
		redisStatus = "not configured"
	}

	utils.Success(c, gin.H{
		"mongo": mongoStatus,
		"redis": redisStatus,
	})
}

// GetSystemStats reports process and relay load
func (h *StatsHandler) GetSystemStats(c *gin.Context) {
	connections, sessions := 0, 0
	if h.hub != nil {
		connections, sessions = h.hub.Stats()
	}

	utils.Success(c, gin.H{
		"cpuUsagePercent":  utils.GetCPUUsage(),
		"relayConnections": connections,
		"relaySessions":    sessions,
	})
}
