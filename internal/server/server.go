// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultAddr is used when Config.Addr is empty.
const DefaultAddr = "127.0.0.1:8787"

// Config configures the relay server.
type Config struct {
	// Addr is the listen address
	Addr string

	// ConnectLimit caps websocket upgrades per IP per ConnectWindow. Zero disables it.
	ConnectLimit  int
	ConnectWindow time.Duration

	// Version is reported by /health
	Version string
}

// Server is the HTTP front of a relay Hub.
type Server struct {
	cfg      Config
	hub      *Hub
	router   *http.ServeMux
	server   *http.Server
	upgrader websocket.Upgrader
	limiter  *RateLimiter
	logger   *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a server; call Start to listen.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ConnectWindow <= 0 {
		cfg.ConnectWindow = time.Minute
	}

	s := &Server{
		cfg:    cfg,
		hub:    NewHub(logger),
		router: http.NewServeMux(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Terminal clients send no Origin header; browsers are not a target.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With("component", "server"),
		done:   make(chan struct{}),
	}
	if cfg.ConnectLimit > 0 {
		s.limiter = NewRateLimiter(cfg.ConnectLimit, cfg.ConnectWindow)
	}
	s.setupRoutes()
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Hub returns the hub behind the server.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	ws := http.Handler(http.HandlerFunc(s.handleWebsocket))
	if s.limiter != nil {
		ws = RateLimitMiddleware(s.limiter, s.logger)(ws)
	}
	s.router.Handle("GET /ws", ws)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /stats", s.handleStats)
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
	)(s.router)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.logger.Debug("upgrade failed", "ip", GetClientIP(r), "error", err)
		return
	}
	s.hub.Serve(conn)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Peers   int    `json:"peers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: s.cfg.Version,
		Peers:   s.hub.Stats().Peers,
	})
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	HubStats
	UptimeSeconds int64 `json:"uptime_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.hub.Stats()
	s.writeJSON(w, http.StatusOK, StatsResponse{
		HubStats:      stats,
		UptimeSeconds: int64(stats.Uptime().Seconds()),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens and serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	if s.limiter != nil {
		go s.sweep()
	}

	s.logger.Info("relay listening", "addr", ln.Addr().String(), "version", s.cfg.Version)
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and disconnects every peer.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })
	s.logger.Info("relay shutting down", "peers", s.hub.Stats().Peers)
	// Hijacked websocket connections are not tracked by http.Server
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

func (s *Server) sweep() {
	ticker := time.NewTicker(s.cfg.ConnectWindow)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.limiter.Sweep()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response failed", "error", err)
	}
}
