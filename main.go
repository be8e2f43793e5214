package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safemove/config"
	"safemove/handler"
	"safemove/middleware"
	"safemove/relay"
	"safemove/repository"
	"safemove/services"
	"safemove/usecase"
	"safemove/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("Warning: no .env file loaded: %v", err)
	}

	requiredEnvVars := []string{
		"MONGO_URI",
		"MONGO_DB",
		"REDIS_URL",
		"JWT_SECRET_KEY",
		"PORT",
	}
	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	utils.InitValidator()
	utils.InitJWT()
	utils.InitMongoClient(config.LoadDatabaseConfig().ClientOptions())
}

func setupRouter(hub *relay.Hub, relayCfg config.RelayConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	// Repositories
	studentsRepo := repository.GetStudentsRepo(utils.MongoClient)
	extensionsRepo := repository.GetExtensionsRepo(utils.MongoClient)
	emergenciesRepo := repository.GetEmergenciesRepo(utils.MongoClient)
	notificationsRepo := repository.GetNotificationsRepo(utils.MongoClient)

	// Services
	studentService := &usecase.StudentService{
		Students: studentsRepo,
	}
	tripService := &usecase.TripService{
		Config:   config.LoadTripConfig(),
		Students: studentsRepo,
	}
	extensionService := &usecase.ExtensionService{
		Extensions: extensionsRepo,
		Students:   studentsRepo,
		Sessions:   hub,
	}
	// Assigned only when the cache connected: a nil *TripCache inside a
	// non-nil interface would defeat the services' nil checks
	if services.GlobalTripCache != nil {
		studentService.Cache = services.GlobalTripCache
		tripService.Cache = services.GlobalTripCache
		extensionService.TripCache = services.GlobalTripCache
	}
	smsSender := services.LogSMSSender{}

	dashboardHandler := handler.NewDashboardHandler(studentsRepo, extensionsRepo, emergenciesRepo)
	statsHandler := handler.NewStatsHandler(utils.MongoClient, services.GlobalTripCache, hub)

	// Realtime relay
	router.GET("/ws", func(c *gin.Context) {
		handler.RelayHandler(c, hub, relayCfg)
	})

	// Operational endpoints
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", statsHandler.GetHealth)

	// Public routes (the tracked user's device)
	public := router.Group("/api")
	{
		public.POST("/extension-requests", func(c *gin.Context) {
			handler.CreateExtensionHandler(c, extensionService)
		})
		public.POST("/students/:studentId/location", func(c *gin.Context) {
			handler.UpdateStudentLocationHandler(c, studentService)
		})
		public.POST("/emergencies", func(c *gin.Context) {
			handler.CreateEmergencyHandler(c, emergenciesRepo)
		})
		public.POST("/sms/send", func(c *gin.Context) {
			handler.SendSMSHandler(c, smsSender)
		})
		public.POST("/trips/decode", func(c *gin.Context) {
			handler.DecodeTripPayloadHandler(c, tripService)
		})
	}

	// Admin routes (authentication required)
	admin := router.Group("/api")
	admin.Use(middleware.AuthMiddleware())
	{
		students := admin.Group("/students")
		{
			students.GET("/", func(c *gin.Context) {
				handler.SearchStudentsHandler(c, studentService)
			})
			students.POST("/", func(c *gin.Context) {
				handler.CreateStudentHandler(c, studentService)
			})
			students.GET("/:studentId", func(c *gin.Context) {
				handler.GetStudentHandler(c, studentService)
			})
			students.PUT("/:studentId/status", func(c *gin.Context) {
				handler.UpdateStudentStatusHandler(c, studentService)
			})
			students.DELETE("/:studentId", func(c *gin.Context) {
				handler.DeleteStudentHandler(c, studentService)
			})
		}

		trips := admin.Group("/trips")
		{
			trips.POST("/", func(c *gin.Context) {
				handler.PlanTripHandler(c, tripService)
			})
			trips.POST("/:studentId/end", func(c *gin.Context) {
				handler.EndTripHandler(c, tripService)
			})
		}

		extensions := admin.Group("/extension-requests")
		{
			extensions.GET("/", func(c *gin.Context) {
				handler.ListPendingExtensionsHandler(c, extensionService)
			})
			extensions.PATCH("/", func(c *gin.Context) {
				handler.DecideExtensionHandler(c, extensionService)
			})
		}

		admin.GET("/emergencies", func(c *gin.Context) {
			handler.ListEmergenciesHandler(c, emergenciesRepo)
		})

		notifications := admin.Group("/notifications")
		{
			notifications.GET("/", func(c *gin.Context) {
				handler.ListNotificationsHandler(c, notificationsRepo)
			})
			notifications.POST("/", func(c *gin.Context) {
				handler.CreateNotificationHandler(c, notificationsRepo)
			})
			notifications.PATCH("/read", func(c *gin.Context) {
				handler.MarkNotificationReadHandler(c, notificationsRepo)
			})
		}

		admin.GET("/dashboard", dashboardHandler.GetDashboard)
		admin.GET("/stats", statsHandler.GetSystemStats)
	}

	return router
}

func main() {
	// Redis trip cache; the relay and extension workflow degrade gracefully
	// without it
	redisURL := utils.GetEnvAsString("REDIS_URL", "redis://localhost:6379")
	tripCache, err := services.NewTripCache(redisURL)
	if err != nil {
		log.Printf("Warning: trip cache unavailable: %v", err)
	} else {
		services.GlobalTripCache = tripCache
	}

	if err := repository.SetupIndexes(utils.MongoClient.Database(os.Getenv("MONGO_DB"))); err != nil {
		log.Printf("Warning: failed to create indexes: %v", err)
	}

	relayCfg := config.LoadRelayConfig()
	var source relay.SessionSource
	if services.GlobalTripCache != nil {
		source = services.GlobalTripCache
	}
	hub := relay.NewHub(relayCfg, source)
	go hub.Run()

	router := setupRouter(hub, relayCfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("SafeMove listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	sig := <-signalChan
	log.Printf("Caught signal %s, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Close()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	utils.CloseMongoClient(ctx)
	log.Println("Server shutdown complete")
}
