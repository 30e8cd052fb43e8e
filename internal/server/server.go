package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/anubhavg-in/receipt-extraction-service/internal/config"
	"github.com/anubhavg-in/receipt-extraction-service/internal/handler"
	"github.com/anubhavg-in/receipt-extraction-service/internal/middleware"
)

// Server represents the HTTP server for the receipt extraction service.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
}

// NewServer creates and configures a new server instance.
func NewServer(cfg *config.Config, receiptHandler *handler.ReceiptHandler) *Server {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger())

	server := &Server{
		router: router,
		config: cfg,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	server.setupRoutes(receiptHandler)

	return server
}

// setupRoutes configures all application routes.
func (s *Server) setupRoutes(receiptHandler *handler.ReceiptHandler) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger UI at /api-docs/index.html
	s.router.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.router.Group("/v1")
	{
		v1.POST("/receipts/scan", receiptHandler.ScanReceipt)
		v1.GET("/receipts/:id", receiptHandler.GetReceipt)
		v1.POST("/receipts/:id/reprocess", receiptHandler.ReprocessReceipt)
		v1.GET("/receipts/:id/image-url", receiptHandler.GetReceiptImageURL)
	}
}

// Start begins listening for requests and handles graceful shutdown.
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Int("port", s.config.Port).Msg("server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited gracefully")
	return nil
}
