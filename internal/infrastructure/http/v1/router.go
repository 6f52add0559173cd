// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"sequor/internal/domain/document"
	"sequor/internal/domain/journal"
	"sequor/internal/domain/link"
	"sequor/internal/domain/sequence"
	"sequor/internal/domain/stamping"
	"sequor/internal/infrastructure/http/v1/handlers"
	"sequor/internal/infrastructure/http/v1/middleware"
	"sequor/pkg/logger"
)

// RouterConfig holds router wiring.
type RouterConfig struct {
	// Store is the persisted sequence collection
	Store *sequence.Store

	// Tree is the in-process document model
	Tree *document.MemoryTree

	// Links reads and writes link metadata over the tree
	Links *link.Registry

	// Stamper orchestrates all mutating operations
	Stamper *stamping.Service

	// Analyzer derives selection state
	Analyzer *stamping.Analyzer

	// Journal serves the stamp journal; nil disables the endpoint
	Journal *journal.Service

	// Logger for request logging
	Logger *logger.Logger

	// AuthSecret, when non-empty, requires a bearer token on /api/v1
	AuthSecret string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	hub := NewHub(cfg.Store)
	notifier := handlers.NewNotifier(cfg.Analyzer, hub)

	sequenceHandler := handlers.NewSequenceHandler(cfg.Store, cfg.Stamper, notifier)
	elementHandler := handlers.NewElementHandler(cfg.Tree, cfg.Links, cfg.Stamper, notifier)
	selectionHandler := handlers.NewSelectionHandler(cfg.Tree, cfg.Analyzer, notifier)
	healthHandler := handlers.NewHealthHandler(cfg.Store)

	// Health endpoints (no auth)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	api := router.Group("/api/v1")
	if cfg.AuthSecret != "" {
		api.Use(middleware.Auth(cfg.AuthSecret))
	}
	{
		api.GET("/events", hub.Serve)

		sequences := api.Group("/sequences")
		{
			sequences.GET("", sequenceHandler.List)
			sequences.POST("", sequenceHandler.Create)
			sequences.GET("/selected", sequenceHandler.GetSelected)
			sequences.PUT("/selected", sequenceHandler.Select)
			sequences.GET("/:id", sequenceHandler.GetByID)
			sequences.PATCH("/:id", sequenceHandler.Update)
			sequences.DELETE("/:id", sequenceHandler.Delete)
			sequences.POST("/:id/reset", sequenceHandler.Reset)
		}

		elements := api.Group("/elements")
		{
			elements.POST("", elementHandler.Create)
			elements.POST("/duplicate", elementHandler.Duplicate)
			elements.GET("/:id", elementHandler.Get)
			elements.POST("/:id/stamp", elementHandler.Stamp)
			elements.POST("/:id/unlink", elementHandler.Unlink)
			elements.POST("/:id/relink", elementHandler.Relink)
		}

		api.GET("/selection", selectionHandler.Get)
		api.PUT("/selection", selectionHandler.Set)

		if cfg.Journal != nil {
			journalHandler := handlers.NewJournalHandler(cfg.Journal)
			api.GET("/journal", journalHandler.List)
		}
	}

	return router
}
