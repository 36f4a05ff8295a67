// Package gateway is the HTTP surface: the LINE webhook, journaling and
// analysis endpoints, and the Google OAuth link flow.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/genoeg/kotori/internal/agent"
	"github.com/genoeg/kotori/internal/config"
	"github.com/genoeg/kotori/internal/domain"
	"github.com/genoeg/kotori/internal/llm"
	"github.com/genoeg/kotori/internal/logging"
	"github.com/genoeg/kotori/internal/version"
)

// Replier delivers reply messages back to the chat platform.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// MessageRunner turns an inbound user message into a reply.
type MessageRunner interface {
	Run(ctx context.Context, userID, text string) (string, error)
}

// LogStore is the slice of the journal store the gateway needs.
type LogStore interface {
	Insert(content string) (int64, error)
	Recent(limit int) ([]domain.LogEntry, error)
}

// CredentialSaver stores OAuth refresh tokens obtained via the link flow.
type CredentialSaver interface {
	SaveRefreshToken(provider, token string) error
}

// Server is the Kotori HTTP server.
type Server struct {
	cfg     config.Config
	log     *logging.Logger
	version string

	runner    MessageRunner
	replier   Replier
	logs      LogStore
	creds     CredentialSaver
	llmClient llm.Client
	tools     *agent.Registry
	oauth     *oauth2.Config

	startedAt  time.Time
	httpServer *http.Server
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithRunner sets the agent runner handling webhook messages.
func WithRunner(r MessageRunner) ServerOption {
	return func(s *Server) { s.runner = r }
}

// WithReplier sets the outbound message client.
func WithReplier(r Replier) ServerOption {
	return func(s *Server) { s.replier = r }
}

// WithLogStore sets the journal store.
func WithLogStore(ls LogStore) ServerOption {
	return func(s *Server) { s.logs = ls }
}

// WithCredentialSaver sets the store for the OAuth link flow.
func WithCredentialSaver(cs CredentialSaver) ServerOption {
	return func(s *Server) { s.creds = cs }
}

// WithLLMClient sets the model client used by the analysis endpoints.
func WithLLMClient(c llm.Client) ServerOption {
	return func(s *Server) { s.llmClient = c }
}

// WithTools sets the tool registry backing the direct calendar endpoint.
func WithTools(t *agent.Registry) ServerOption {
	return func(s *Server) { s.tools = t }
}

// WithOAuthConfig sets the Google OAuth config for the link flow.
func WithOAuthConfig(conf *oauth2.Config) ServerOption {
	return func(s *Server) { s.oauth = conf }
}

// New creates a new gateway server.
func New(cfg config.Config, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:     cfg,
		log:     log.Sub("gateway"),
		version: version.Version,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening for HTTP connections. It blocks until the context
// is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Server)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      withMiddleware(mux, s.log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Server.Bind).
		Msg("server starting")

	// Shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// registerRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("POST /logs", s.handleCreateLog)
	mux.HandleFunc("POST /insights", s.handleInsights)
	mux.HandleFunc("POST /milestones", s.handleMilestones)
	mux.HandleFunc("POST /calendar", s.handleCalendar)
	mux.HandleFunc("GET /auth/google/start", s.handleGoogleStart)
	mux.HandleFunc("GET /auth/google/callback", s.handleGoogleCallback)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}
