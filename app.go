package pilotserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pilot_server/agent"
	"pilot_server/handlers"
	"pilot_server/llm"
	"pilot_server/prompts"
	"pilot_server/tracing"
)

// Server is the main pilot_server instance. Create one with New(), then
// call Start() to run the HTTP server hosting the agent channels.
type Server struct {
	host       string
	port       int
	configFile string
	locale     string
	model      llm.Client // overrides the configured model endpoint when set

	registry *agent.Registry
	srv      *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithPort sets the listen port (default 8080).
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// WithHost sets the listen host (default "0.0.0.0").
func WithHost(host string) Option {
	return func(s *Server) { s.host = host }
}

// WithConfigFile sets the path to a model.yaml config file.
func WithConfigFile(path string) Option {
	return func(s *Server) { s.configFile = path }
}

// WithLocale sets the system-prompt locale (default "en").
func WithLocale(locale string) Option {
	return func(s *Server) { s.locale = locale }
}

// WithModel injects a reasoning client, bypassing the configured endpoint.
func WithModel(c llm.Client) Option {
	return func(s *Server) { s.model = c }
}

// New creates a new Server with the given options.
func New(opts ...Option) *Server {
	s := &Server{
		host: "0.0.0.0",
		port: 8080,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start initializes dependencies, builds routes, and runs the HTTP server.
// It blocks until the server is shut down via signal or Shutdown().
func (s *Server) Start() error {
	cfg := defaultFileConfig()
	if s.configFile != "" {
		log.Printf("Loading config from %s", s.configFile)
		loaded, err := loadConfigFile(s.configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	// Explicit option wins, then the config file, then English.
	if s.locale == "" {
		s.locale = cfg.Server.Locale
	}
	if s.locale == "" {
		s.locale = prompts.LocaleEN
	}

	model := s.model
	if model == nil {
		model = llm.NewOpenAIClient(cfg.Model)
		log.Printf("Model endpoint: %s (%s)", cfg.Model.BaseURL, cfg.Model.ModelName)
	}

	s.registry = agent.NewRegistry(prompts.Get(s.locale))
	deps := &handlers.Deps{
		Registry:     s.registry,
		Model:        model,
		Traces:       tracing.NewStore(1000),
		InferTimeout: time.Duration(cfg.Server.InferTimeoutSeconds) * time.Second,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":          "ok",
			"active_sessions": s.registry.Len(),
		})
	})

	handlers.RegisterRoutes(mux, deps)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
		// Read/write timeouts stay disabled: agent channels are hijacked
		// long-lived websocket connections.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on signal
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.srv.Shutdown(ctx)
	}()

	log.Printf("pilot_server starting on %s (locale=%s)", addr, s.locale)

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
