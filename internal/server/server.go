// Package server exposes the coordinator and delivery channel over HTTP
// for page sessions that live outside this process.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jimezsa/ghostcli/internal/delivery"
	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/rs/zerolog"
)

const (
	// OriginHeader carries the page session id on POST /v1/messages.
	OriginHeader = "X-Origin"

	serviceName       = "ghostcli"
	maxMessageBytes   = 1 << 20
	heartbeatInterval = 15 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// History is the history store seen by the HTTP layer.
type History interface {
	List(ctx context.Context) ([]models.HistoryEntry, error)
	Clear(ctx context.Context) error
}

type Options struct {
	Router  *delivery.Router
	Hub     *delivery.Hub
	History History
	Logger  zerolog.Logger
}

type Server struct {
	engine  *gin.Engine
	router  *delivery.Router
	hub     *delivery.Hub
	history History
	log     zerolog.Logger
}

func New(opts Options) *Server {
	s := &Server{
		engine:  gin.New(),
		router:  opts.Router,
		hub:     opts.Hub,
		history: opts.History,
		log:     opts.Logger.With().Str("component", "server").Logger(),
	}
	s.engine.Use(gin.Recovery(), requestLogger(s.log))
	s.routes()
	return s
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	v1 := s.engine.Group("/v1")
	v1.POST("/messages", s.postMessage)
	v1.GET("/origins/:origin/events", s.events)
	v1.GET("/history", s.listHistory)
	v1.DELETE("/history", s.clearHistory)
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// SSE streams end when the hub closes their surfaces.
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
}

func (s *Server) postMessage(c *gin.Context) {
	origin := strings.TrimSpace(c.GetHeader(OriginHeader))
	if origin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + OriginHeader + " header"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMessageBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	msg, err := delivery.Decode(body)
	if err != nil {
		s.log.Debug().Str("origin", origin).Err(err).Msg("ignoring message")
		c.Status(http.StatusNoContent)
		return
	}

	reply := s.router.Dispatch(c.Request.Context(), origin, msg)
	switch msg.(type) {
	case delivery.AnalyzeJob:
		data, err := delivery.Encode(reply)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode result"})
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	case delivery.ClosedListing:
		c.Status(http.StatusAccepted)
	default:
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) listHistory(c *gin.Context) {
	entries, err := s.history.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read history"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) clearHistory(c *gin.Context) {
	if err := s.history.Clear(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear history"})
		return
	}
	c.Status(http.StatusNoContent)
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		event := log.Info()
		if len(c.Errors) > 0 {
			event = log.Error().Str("errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

func surfaceName(c *gin.Context) string {
	if c.Query("surface") == delivery.SurfacePanel {
		return delivery.SurfacePanel
	}
	return delivery.SurfaceStream + "-" + uuid.NewString()
}
