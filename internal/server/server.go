// Package server exposes a small operational HTTP surface next to the
// TUI: health, open tabs, pipeline status, and a websocket stream of
// pipeline progress.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/merchdeck/merchdeck/internal/logging"
	"github.com/merchdeck/merchdeck/pkg/events"
)

// TabInfo is the wire shape of one open tab.
type TabInfo struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Path   string `json:"path"`
	Active bool   `json:"active"`
}

// PipelineStatus is the wire shape of the current pipeline state.
type PipelineStatus struct {
	Running      bool   `json:"running"`
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	Stage        string `json:"stage"`
	RecordKey    string `json:"recordKey,omitempty"`
	Batch        int    `json:"batch,omitempty"`
	TotalBatches int    `json:"totalBatches,omitempty"`
}

// Snapshots supplies current state to the handlers. Both funcs must be
// safe to call from any goroutine.
type Snapshots struct {
	Tabs     func() []TabInfo
	Pipeline func() PipelineStatus
}

// Server is the ops endpoint.
type Server struct {
	addr      string
	bus       *events.EventBus
	snapshots Snapshots
	upgrader  websocket.Upgrader
	httpSrv   *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// New builds a server listening on the given port.
func New(port int, bus *events.EventBus, snapshots Snapshots) *Server {
	s := &Server{
		addr:      fmt.Sprintf(":%d", port),
		bus:       bus,
		snapshots: snapshots,
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:   make(map[*websocket.Conn]bool),
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/tabs", s.handleTabs).Methods(http.MethodGet)
	r.HandleFunc("/api/pipeline", s.handlePipeline).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{
		Addr:         s.addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	if bus != nil {
		bus.Subscribe(events.PipelineProgress, s.broadcast)
		bus.Subscribe(events.PipelineFinished, s.broadcast)
	}
	return s
}

// Start serves until Shutdown. It returns once the listener closes.
func (s *Server) Start() error {
	logging.WithComponent("ops").Info("ops server listening", "addr", s.addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown closes websocket clients and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleTabs(w http.ResponseWriter, r *http.Request) {
	tabs := []TabInfo{}
	if s.snapshots.Tabs != nil {
		tabs = s.snapshots.Tabs()
	}
	writeJSON(w, tabs)
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var status PipelineStatus
	if s.snapshots.Pipeline != nil {
		status = s.snapshots.Pipeline()
	}
	writeJSON(w, status)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	// Reader loop only exists to notice the close.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// broadcast forwards a bus event to every websocket client. Slow or
// broken clients are dropped.
func (s *Server) broadcast(event events.Event) {
	payload := map[string]interface{}{
		"type": string(event.Type),
		"data": event.Data,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WithComponent("ops").Warn("encode response", "error", err)
	}
}
