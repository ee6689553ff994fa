package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scriptura/bible-mcp-server/internal/mcp"
)

const maxRequestBody = 1024 * 1024

// Session tracks an active SSE session.
type Session struct {
	ID       string
	Messages chan []byte // events sent to the client
	done     chan struct{}
}

// Server is the HTTP transport in front of the protocol handler. It owns
// the listener, CORS, the health check, and both MCP transports (legacy
// SSE and streamable HTTP); every decoded envelope is delegated to the
// handler.
type Server struct {
	addr     string
	handler  *mcp.Handler
	metrics  *Metrics
	logger   *zap.Logger
	sessions sync.Map // sessionID -> *Session
}

func New(addr string, handler *mcp.Handler, metrics *Metrics, logger *zap.Logger) *Server {
	return &Server{addr: addr, handler: handler, metrics: metrics, logger: logger}
}

// Start runs the listener until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/sse", s.handleSSE)
	mux.HandleFunc("/message", s.handleSSEMessage)
	mux.HandleFunc("/mcp", s.handleMCP)

	server := &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, mcp-session-id")
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil, false
	}
	if len(body) > maxRequestBody {
		http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	return body, true
}

// process delegates one envelope to the handler and records metrics.
func (s *Server) process(ctx context.Context, body []byte) *mcp.JSONRPCResponse {
	start := time.Now()
	response := s.handler.HandleMessage(ctx, body)
	latency := float64(time.Since(start).Milliseconds())

	isError := response != nil && response.Error != nil
	s.metrics.Record(latency, isError)
	return response
}

// ========== Streamable HTTP transport ==========

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPost:
		s.handleStreamableHTTP(w, r)
	case http.MethodGet:
		s.handleStreamableSSE(w, r)
	case http.MethodDelete:
		s.handleStreamableDelete(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleStreamableHTTP(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	// An id-less envelope is a notification: the handler still produces
	// a response object, but the transport answers 202 without a body.
	// Undecodable bodies are not notifications; they get the parse error.
	isNotification := false
	var rawMsg map[string]json.RawMessage
	if err := json.Unmarshal(body, &rawMsg); err == nil {
		_, hasID := rawMsg["id"]
		isNotification = !hasID
	}

	response := s.process(r.Context(), body)

	if isNotification || response == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	sessionID := r.Header.Get("mcp-session-id")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("mcp-session-id", sessionID)
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleStreamableSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) handleStreamableDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("mcp-session-id")
	if sessionID != "" {
		if sessionVal, ok := s.sessions.Load(sessionID); ok {
			session := sessionVal.(*Session)
			close(session.done)
			s.sessions.Delete(sessionID)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ========== Legacy SSE transport ==========

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := generateSessionID()
	session := &Session{
		ID:       sessionID,
		Messages: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	s.sessions.Store(sessionID, session)

	defer func() {
		close(session.done)
		s.sessions.Delete(sessionID)
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: /message?sessionId=%s\n\n", sessionID)
	flusher.Flush()

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-session.done:
			return
		case msg := <-session.Messages:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", string(msg))
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) handleSSEMessage(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "Missing sessionId", http.StatusBadRequest)
		return
	}

	sessionVal, ok := s.sessions.Load(sessionID)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	session := sessionVal.(*Session)

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	response := s.process(r.Context(), body)

	if response != nil {
		respBytes, _ := json.Marshal(response)
		select {
		case session.Messages <- respBytes:
		default:
			s.logger.Warn("session message buffer full, dropping",
				zap.String("session", sessionID))
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// generateSessionID creates a short unique session ID
func generateSessionID() string {
	return fmt.Sprintf("s_%d_%d", time.Now().UnixNano(), time.Now().UnixMicro()%10000)
}
