// Package server exposes the detection pipeline over HTTP.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toolcheck"
	"toolcheck/internal/config"
	"toolcheck/pkg/detection"
	"toolcheck/pkg/processing"
	"toolcheck/pkg/report"
	"toolcheck/pkg/types"
)

// Server serves toolbox checks for a fixed annotation set.
//
// The annotations describe the slot layout of the monitored toolbox and
// are loaded once at startup; each request supplies a fresh photo.
type Server struct {
	checker   *toolcheck.ToolCheck
	processor *processing.Processor
	anns      []types.Annotation
	cfg       config.ServerConfig
	logger    *zap.Logger
}

// New creates a server around an existing checker.
func New(checker *toolcheck.ToolCheck, anns []types.Annotation, cfg config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		checker:   checker,
		processor: processing.NewProcessor(),
		anns:      anns,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run() error {
	gin.SetMode(ginMode(s.cfg.Mode))

	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.logger.Info("server starting", zap.String("addr", s.cfg.Addr))
	return srv.ListenAndServe()
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": toolcheck.Version,
			"regions": len(s.anns),
		})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/check", s.handleCheck)
	}

	return r
}

// handleCheck accepts a multipart image upload and returns the report.
func (s *Server) handleCheck(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer f.Close()

	img, err := s.processor.LoadImageFromReader(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot decode uploaded image"})
		return
	}

	rep, err := s.checker.CheckImage(c.Request.Context(), img, s.anns)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, detection.ErrNoAnnotations) || errors.Is(err, report.ErrNoRegions) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Error("check failed", zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, rep)
}

func ginMode(mode string) string {
	switch mode {
	case "debug", "test":
		return mode
	default:
		return gin.ReleaseMode
	}
}
