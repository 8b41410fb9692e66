// mpbot webhook server.
// Serves the WeChat callback endpoint plus a small operational API
// (health, live dispatch log over WebSocket).
package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sipeed/mpbot/pkg/bus"
	"github.com/sipeed/mpbot/pkg/config"
	"github.com/sipeed/mpbot/pkg/logger"
	"github.com/sipeed/mpbot/pkg/message"
	"github.com/sipeed/mpbot/pkg/robot"
)

// maxBodyBytes bounds inbound webhook bodies. Platform messages are tiny;
// anything near this limit is not a message.
const maxBodyBytes = 1 << 20

// Server is the HTTP server hosting the webhook and operational endpoints.
type Server struct {
	cfg       *config.Config
	apiKey    string
	robot     *robot.Robot
	bus       *bus.Bus
	hub       *WSHub
	log       *logger.Logger
	startTime time.Time
	server    *http.Server
}

// NewServer creates the server. When no API key is configured a random
// session key is generated and logged once at startup, so the operational
// endpoints are never open by accident. The generated key lives on the
// Server; the caller's config is left untouched.
func NewServer(cfg *config.Config, rb *robot.Robot, b *bus.Bus, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		raw := make([]byte, 24)
		if _, err := rand.Read(raw); err == nil {
			apiKey = hex.EncodeToString(raw)
			log.InfoCF("api", "Generated session API key (set api_key in config to make it permanent)", map[string]interface{}{
				"api_key": apiKey,
			})
		}
	}
	s := &Server{
		cfg:       cfg,
		apiKey:    apiKey,
		robot:     rb,
		bus:       b,
		log:       log,
		startTime: time.Now(),
	}
	s.hub = NewWSHub(s)
	return s
}

// Handler builds the route table. Exposed separately from Start so tests
// can drive it with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// WeChat callback. Authenticated by the platform signature, not the API key.
	mux.HandleFunc("GET "+s.cfg.WebhookPath, s.handleEcho)
	mux.HandleFunc("POST "+s.cfg.WebhookPath, s.handleMessage)

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /api/ws", s.requireToken(http.HandlerFunc(s.hub.HandleWebSocket)))

	return mux
}

// Start listens on the configured host:port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.hub.Run(ctx)
	if s.bus != nil {
		go s.hub.RunBridge(ctx, s.bus.Subscribe("ws-bridge"))
	}

	s.log.InfoCF("api", "Webhook server listening", map[string]interface{}{
		"addr": addr,
		"path": s.cfg.WebhookPath,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.InfoC("api", "Shutting down webhook server")
		return s.server.Shutdown(shutCtx)
	}
}

// handleEcho answers the platform's endpoint-verification request: validate
// the signature from the query string and echo back echostr.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !s.robot.CheckSignature(q.Get("timestamp"), q.Get("nonce"), q.Get("signature")) {
		s.log.WarnCF("api", "Echo request with bad signature", map[string]interface{}{
			"remote": r.RemoteAddr,
		})
		http.Error(w, "signature check failed", http.StatusForbidden)
		return
	}
	io.WriteString(w, q.Get("echostr"))
}

// handleMessage is the inbound message path: signature check, parse,
// dispatch, render. No reply from the engine means an empty 200 body,
// which the platform treats as "nothing to say".
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !s.robot.CheckSignature(q.Get("timestamp"), q.Get("nonce"), q.Get("signature")) {
		s.log.WarnCF("api", "Message with bad signature rejected", map[string]interface{}{
			"remote": r.RemoteAddr,
		})
		http.Error(w, "signature check failed", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read body failed", http.StatusBadRequest)
		return
	}

	msg, err := message.Parse(body)
	if err != nil {
		s.log.WarnCF("api", "Unparseable message body", map[string]interface{}{
			"error": err.Error(),
		})
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}

	reply := s.robot.Dispatch(r.Context(), msg)
	if reply == "" {
		s.log.DebugCF("api", "No handler replied", map[string]interface{}{
			"kind":   msg.Kind,
			"source": msg.Source,
		})
		w.WriteHeader(http.StatusOK)
		return
	}

	out, err := message.RenderReply(reply, msg, time.Now())
	if err != nil {
		s.log.ErrorCF("api", "Reply rendering failed", map[string]interface{}{
			"error": err.Error(),
		})
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write(out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
