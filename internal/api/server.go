// Package api provides the HTTP host for the Sign in with Apple flow. It mounts
// the webview relay endpoint, receives Apple's form_post when the redirect URI
// targets this host and exposes a health check.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/AppleWebAuth/internal/bridge"
	"github.com/router-for-me/AppleWebAuth/internal/config"
	"github.com/router-for-me/AppleWebAuth/internal/constant"
	"github.com/router-for-me/AppleWebAuth/internal/logging"
	"github.com/router-for-me/AppleWebAuth/internal/misc"
	"github.com/router-for-me/AppleWebAuth/internal/wsrelay"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP host.
type Server struct {
	engine   *gin.Engine
	server   *http.Server
	cfg      *config.Config
	relay    *wsrelay.Manager
	registry *bridge.Registry
}

// NewServer builds the gin engine and routes. relay may be nil when no webview
// shells are expected; registry receives form_post callbacks.
func NewServer(cfg *config.Config, relay *wsrelay.Manager, registry *bridge.Registry) *Server {
	engine := gin.New()
	engine.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery())

	s := &Server{
		engine:   engine,
		cfg:      cfg,
		relay:    relay,
		registry: registry,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	if s.relay != nil {
		s.engine.GET(s.cfg.RelayPath, gin.WrapH(s.relay.Handler()))
	}
	s.engine.POST(s.cfg.CallbackPath, s.handleCallback)
	s.engine.GET(s.cfg.CallbackPath, s.handleCallback)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("api: listen on %s: %w", s.server.Addr, err)
	}
	log.Infof("listening on %s", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.relay != nil {
		_ = s.relay.Stop(shutdownCtx)
	}
	if err = s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "bridges": s.registry.Names()})
}

// handleCallback turns Apple's form_post (or a query redirect) into a form
// payload and hands it to the registered form bridge.
func (s *Server) handleCallback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form data")
		return
	}
	payload := misc.EncodeValues(c.Request.Form)

	err := s.registry.Dispatch(constant.BridgeName, constant.BridgeMethod, payload)
	if err != nil {
		if errors.Is(err, bridge.ErrUnknownHandler) {
			c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(renderPage(noAttemptTitle, noAttemptMessage)))
			return
		}
		_ = c.Error(err)
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(renderPage(failedTitle, failedMessage)))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(renderPage(doneTitle, doneMessage)))
}
