// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/telemetry_ui/internal/telemetry"
)

const wsWriteTimeout = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // browser dashboards are served from other hosts
	},
}

// Event is one websocket frame. Exactly one payload field is set.
type Event struct {
	Kind     string                  `json:"kind"`
	Position *Position               `json:"position,omitempty"`
	Raw      *telemetry.Raw          `json:"raw,omitempty"`
	Debug    *telemetry.DebugMessage `json:"debug,omitempty"`
}

// WebSink keeps the latest state for the HTTP API and pushes every event
// to connected websocket clients.
type WebSink struct {
	log zerolog.Logger

	mu       sync.RWMutex
	position Position
	havePos  bool
	status   Status

	// wsMu serializes client registration and all websocket writes.
	wsMu    sync.Mutex
	clients map[*websocket.Conn]struct{}

	server *http.Server
}

func NewWebSink(log zerolog.Logger) *WebSink {
	return &WebSink{
		log:     log.With().Str("component", "web").Logger(),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (s *WebSink) Name() string { return "web" }

// Handler exposes /api/location, /api/status and /ws.
func (s *WebSink) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/location", s.handleLocation)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Serve binds addr and serves in the background until Close. Only the
// bind error is returned.
func (s *WebSink) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("web: listen %s: %w", addr, err)
	}

	s.server = &http.Server{Handler: s.Handler()}
	s.log.Info().Str("addr", ln.Addr().String()).Msg("web server listening")
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("web server stopped")
		}
	}()
	return nil
}

func (s *WebSink) ShowLocation(p Position) error {
	s.mu.Lock()
	s.position = p
	s.havePos = true
	s.mu.Unlock()
	s.broadcast(Event{Kind: telemetry.TypeLocation, Position: &p})
	return nil
}

func (s *WebSink) ShowRaw(r telemetry.Raw) error {
	s.broadcast(Event{Kind: telemetry.TypeRaw, Raw: &r})
	return nil
}

func (s *WebSink) ShowDebug(d telemetry.DebugMessage) error {
	s.broadcast(Event{Kind: telemetry.TypeDebug, Debug: &d})
	return nil
}

func (s *WebSink) ObserveStatus(st Status) error {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	return nil
}

func (s *WebSink) Close() error {
	s.wsMu.Lock()
	for c := range s.clients {
		c.Close()
		delete(s.clients, c)
	}
	s.wsMu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *WebSink) handleLocation(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	p, ok := s.position, s.havePos
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, p)
}

func (s *WebSink) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.status
	s.mu.RUnlock()
	s.writeJSON(w, st)
}

func (s *WebSink) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("json encode error")
	}
}

func (s *WebSink) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}

	s.mu.RLock()
	p, ok := s.position, s.havePos
	s.mu.RUnlock()

	s.wsMu.Lock()
	s.clients[conn] = struct{}{}
	if ok {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(Event{Kind: telemetry.TypeLocation, Position: &p}); err != nil {
			s.log.Debug().Err(err).Msg("websocket initial write failed")
		}
	}
	s.wsMu.Unlock()
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client connected")

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.wsMu.Lock()
	delete(s.clients, conn)
	s.wsMu.Unlock()
	conn.Close()
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client disconnected")
}

func (s *WebSink) broadcast(ev Event) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := c.WriteJSON(ev); err != nil {
			s.log.Debug().Err(err).Msg("dropping websocket client")
			c.Close()
			delete(s.clients, c)
		}
	}
}
