// Package callback runs the local HTTP server that catches the
// authorization redirect when the desktop environment has no handler for
// the application's custom URL scheme. It captures the raw redirect payload
// and hands it, untouched, to the orchestrator's code extraction.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Server is the loopback OAuth callback listener.
type Server struct {
	server *http.Server
	port   int

	// payloadChan delivers the raw redirect payload (request URI) of each
	// received callback.
	payloadChan chan string

	mu      sync.Mutex
	running bool
}

// NewServer creates a callback server listening on the given loopback port.
func NewServer(port int) *Server {
	return &Server{
		port:        port,
		payloadChan: make(chan string, 1),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Start begins listening. It fails when the port is taken, so the caller
// can surface a clear configuration error instead of a dead login flow.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("callback: server already running")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return fmt.Errorf("callback: port %d unavailable: %w", s.port, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.handleLogin)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	s.running = true

	go func() {
		if errServe := s.server.Serve(listener); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Errorf("callback: server failed: %v", errServe)
		}
	}()
	log.Debugf("callback: listening on 127.0.0.1:%d", s.port)
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.server == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(shutdownCtx)
	s.running = false
	s.server = nil
	return err
}

// Payloads returns the channel of received redirect payloads.
func (s *Server) Payloads() <-chan string {
	return s.payloadChan
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	select {
	case s.payloadChan <- r.URL.RequestURI():
	default:
		log.Warn("callback: dropping redirect, no login flow waiting")
		http.Error(w, "no login flow in progress", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<html><head><title>Login complete</title></head>` +
		`<body><h1>Login complete</h1><p>You can close this window and return to the application.</p></body></html>`))
}
