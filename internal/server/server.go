// Package server wires every component together behind the HTTP surface:
// the message endpoint for the UI layer, the WebSocket endpoint for the
// browser extension, and health/metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tabwarden/tabwarden/internal/alarm"
	"github.com/tabwarden/tabwarden/internal/bridge"
	"github.com/tabwarden/tabwarden/internal/config"
	"github.com/tabwarden/tabwarden/internal/folders"
	"github.com/tabwarden/tabwarden/internal/heuristics"
	"github.com/tabwarden/tabwarden/internal/logging"
	"github.com/tabwarden/tabwarden/internal/monitoring"
	"github.com/tabwarden/tabwarden/internal/router"
	"github.com/tabwarden/tabwarden/internal/settings"
	"github.com/tabwarden/tabwarden/internal/shared/types"
	"github.com/tabwarden/tabwarden/internal/stale"
	"github.com/tabwarden/tabwarden/internal/store"
	"github.com/tabwarden/tabwarden/internal/tracker"
	"go.uber.org/zap"
)

// Server owns the HTTP engine and the component graph behind it.
type Server struct {
	engine    *gin.Engine
	http      *http.Server
	log       *logging.Logger
	cfg       *config.Config
	router    *router.Router
	bridge    *bridge.Bridge
	scheduler *alarm.Scheduler
	stale     *stale.Detector
}

// New builds the full component graph from configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	st, err := store.NewFileStore(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	tables, err := loadTables(cfg.Heuristics.TablesPath)
	if err != nil {
		return nil, err
	}

	metrics := monitoring.NewDefault()

	settingsManager := settings.NewManager(st)

	br := bridge.New(log.Named("bridge"), metrics)
	trk := tracker.New(st, br, log.Named("tracker"), metrics)
	br.Bind(trk)

	staleDetector := stale.New(st, br, br, settingsManager, log.Named("stale"), metrics)
	folderManager := folders.NewManager(st, br, settingsManager, log.Named("folders"), metrics)

	msgRouter := router.New(log.Named("router"), metrics)
	router.Register(msgRouter, router.Deps{
		Store:        st,
		Tabs:         br,
		Tracker:      trk,
		Stale:        staleDetector,
		Folders:      folderManager,
		Settings:     settingsManager,
		Tables:       tables,
		MinGroupSize: cfg.Detector.MinGroupSize,
	})

	scheduler := alarm.NewScheduler(log.Named("alarm"))
	scheduler.Ensure(stale.AlarmName, cfg.Detector.ScanDelay, cfg.Detector.ScanPeriod, staleDetector.Task())

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(monitoring.Middleware(metrics))
	engine.Use(corsMiddleware())
	if cfg.RateLimit.Enabled {
		engine.Use(rateLimitMiddleware(cfg.RateLimit))
	}

	s := &Server{
		engine:    engine,
		log:       log,
		cfg:       cfg,
		router:    msgRouter,
		bridge:    br,
		scheduler: scheduler,
		stale:     staleDetector,
	}
	s.registerRoutes()
	return s, nil
}

func loadTables(path string) (*heuristics.Tables, error) {
	if path != "" {
		return heuristics.LoadFile(path)
	}
	return heuristics.Load()
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.POST("/message", s.handleMessage)
	s.engine.GET("/stream", s.bridge.HandleConnection)
}

func (s *Server) handleHealth(c *gin.Context) {
	_, err := s.bridge.Query(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"connected": err == nil,
		"requests":  s.router.Types(),
	})
}

// handleMessage is the single UI entry point. Malformed envelopes and
// handler failures both come back as {success:false, error}; the HTTP
// status stays 200 so the UI has one decode path.
func (s *Server) handleMessage(c *gin.Context) {
	var msg types.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusOK, types.Fail("invalid message: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, s.router.Dispatch(c.Request.Context(), msg))
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.log.Info("starting server", zap.String("addr", addr))
	s.http = &http.Server{Addr: addr, Handler: s.engine}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the scheduler and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	if s.http == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
