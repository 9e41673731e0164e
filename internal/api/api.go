// Package api is the engine's REST control surface (spec.md §5's
// control commands exposed over HTTP instead of only Telegram),
// grounded in the teacher's internal/api.Server (gin.Engine + CORS +
// a custom zerolog request logger) but narrowed to the three verbs
// the trading engine actually needs: start, stop, and status.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kryofly/freqtrade/internal/metrics"
)

// Controller is the subset of internal/live.Engine this surface needs,
// kept narrow so this package doesn't import internal/live directly
// (mirrors internal/notify/telegram's Controller).
type Controller interface {
	Stop()
	Resume() error
	Status() string
}

// Server is the gin-based control surface.
type Server struct {
	router     *gin.Engine
	controller Controller
	addr       string
	server     *http.Server
}

// NewServer builds a control surface bound to host:port, dispatching
// start/stop/status to controller.
func NewServer(host string, port int, controller Controller) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware())
	router.Use(metrics.GinMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s := &Server{
		router:     router,
		controller: controller,
		addr:       fmt.Sprintf("%s:%d", host, port),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/start", s.handleStart)
		v1.POST("/stop", s.handleStop)
		v1.GET("/status", s.handleStatus)
	}
}

func (s *Server) handleStart(c *gin.Context) {
	if err := s.controller.Resume(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": s.controller.Status()})
}

func (s *Server) handleStop(c *gin.Context) {
	s.controller.Stop()
	c.JSON(http.StatusOK, gin.H{"status": s.controller.Status()})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": s.controller.Status()})
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Info().Str("addr", s.addr).Msg("starting control API")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("control api: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("control api request")
	}
}
