package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxRequestBytes = 64 << 10

// Server is the webhook the device pushes SMS and call events to
type Server struct {
	inbox  *Inbox
	calls  *CallFeed
	token  string
	logger *zap.Logger
	now    func() time.Time
	srv    *http.Server
}

// NewServer creates a new gateway server
func NewServer(addr, token string, inbox *Inbox, calls *CallFeed, logger *zap.Logger) *Server {
	s := &Server{
		inbox:  inbox,
		calls:  calls,
		token:  token,
		logger: logger,
		now:    time.Now,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routes of the gateway
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sms", s.handleSMS)
	mux.HandleFunc("POST /v1/calls", s.handleCall)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("gateway listen on %s: %w", s.srv.Addr, err)
	}

	s.logger.Info("Gateway listening", zap.String("address", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Gateway server failed", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.inbox.Put(msg)
	s.logger.Debug("SMS received", zap.String("id", msg.ID), zap.String("sender", msg.Sender))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.decode(w, r)
	if !ok {
		return
	}
	s.calls.Publish(msg)
	s.logger.Debug("Call received", zap.String("id", msg.ID), zap.String("sender", msg.Sender))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (Message, bool) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Message{}, false
	}

	var msg Message
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&msg); err != nil {
		s.logger.Warn("Invalid gateway payload", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return Message{}, false
	}
	if strings.TrimSpace(msg.Sender) == "" {
		http.Error(w, "sender is required", http.StatusBadRequest)
		return Message{}, false
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = s.now()
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return msg, true
}

func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" {
		return true
	}
	got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) == 1
}
