package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/velotrace/velotrace-backend/internal/handlers"
	"github.com/velotrace/velotrace-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	HealthcheckHandler *handlers.HealthcheckHandler
	BikeHandler        *handlers.BikeHandler
	PartHandler        *handlers.PartHandler
	HistoryHandler     *handlers.HistoryHandler
	GarageHandler      *handlers.GarageHandler
	AlertHandler       *handlers.AlertHandler
	ReviewHandler      *handlers.ReviewHandler
	ProductHandler     *handlers.ProductHandler
	AllowedOrigins     []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("velotrace-backend"))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Bikes
	api.POST("/bikes", cfg.BikeHandler.Create)
	api.GET("/bikes", cfg.BikeHandler.List)
	api.GET("/bikes/:bikeID", cfg.BikeHandler.Get)
	api.POST("/bikes/:bikeID/distance", cfg.PartHandler.RecordDistance)

	// Parts
	api.GET("/bikes/:bikeID/parts", cfg.PartHandler.List)
	api.POST("/bikes/:bikeID/parts/:category", cfg.PartHandler.Install)
	api.POST("/bikes/:bikeID/parts/:category/detach", cfg.GarageHandler.Detach)

	// History
	api.GET("/bikes/:bikeID/history", cfg.HistoryHandler.ListForBike)
	api.GET("/parts/:partID/history", cfg.HistoryHandler.ListForPart)
	api.POST("/history/:historyID/undo", cfg.HistoryHandler.Undo)

	// Garage
	api.GET("/garage", cfg.GarageHandler.List)
	api.POST("/garage/:storedPartID/install", cfg.GarageHandler.Install)
	api.DELETE("/garage/:storedPartID", cfg.GarageHandler.Discard)

	// Alerts
	api.GET("/alerts", cfg.AlertHandler.List)
	api.POST("/alerts/:alertID/acknowledge", cfg.AlertHandler.Acknowledge)
	api.POST("/alerts/:alertID/dismiss", cfg.AlertHandler.Dismiss)

	// Catalog
	api.GET("/products", cfg.ProductHandler.ListByCategory)
	api.GET("/products/:productID", cfg.ProductHandler.Get)
	api.GET("/products/:productID/reviews", cfg.ReviewHandler.ListForProduct)

	// Reviews
	api.POST("/reviews", cfg.ReviewHandler.Upsert)
	api.DELETE("/reviews/:reviewID", cfg.ReviewHandler.Delete)

	return router
}
