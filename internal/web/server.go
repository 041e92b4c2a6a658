// Package web serves the VerseDeck page, its JSON API and the live-parse
// WebSocket.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/VerseDeck/internal/logging"
	"github.com/FocuswithJustin/VerseDeck/internal/server"
	"github.com/FocuswithJustin/VerseDeck/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// AllowedOrigins restricts CORS and WebSocket origins. Empty allows any
	// origin for CORS and same-origin WebSocket connections only.
	AllowedOrigins []string

	// BuildsPerMin limits deck builds per client IP; 0 disables the limit.
	BuildsPerMin int
	BuildBurst   int

	// DeckTTL is how long built decks stay in the output directory before
	// the sweep removes them; 0 keeps them.
	DeckTTL time.Duration

	Version string
}

// Server holds the handlers and their shared state.
type Server struct {
	svc      *service.Service
	opts     Options
	page     *template.Template
	started  time.Time
	builds   *server.RateLimiter // nil when unlimited
	messages *server.RateLimiter
	upgrader websocket.Upgrader
	clients  atomic.Int32
}

// New creates a Server for svc.
func New(svc *service.Service, opts Options) (*Server, error) {
	page, err := template.ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:     svc,
		opts:    opts,
		page:    page,
		started: time.Now(),
		messages: server.NewRateLimiter(server.RateLimiterConfig{
			RequestsPerMinute: wsMessagesPerMinute,
			BurstSize:         wsMessageBurst,
		}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	if opts.BuildsPerMin > 0 {
		s.builds = server.NewRateLimiter(server.RateLimiterConfig{
			RequestsPerMinute: opts.BuildsPerMin,
			BurstSize:         opts.BuildBurst,
		})
	}
	return s, nil
}

// Close releases the rate limiters.
func (s *Server) Close() {
	s.messages.Close()
	if s.builds != nil {
		s.builds.Close()
	}
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	page := server.SecurityHeaders(server.PageCSPConfig())
	api := server.SecurityHeaders(server.APICSPConfig())

	deck := http.Handler(http.HandlerFunc(s.handleDeck))
	if s.builds != nil {
		deck = s.builds.Middleware(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many deck builds, try again later")
		})(deck)
	}

	mux := http.NewServeMux()
	mux.Handle("/", page(http.HandlerFunc(s.handleIndex)))
	mux.Handle("/api/parse", api(http.HandlerFunc(s.handleParse)))
	mux.Handle("/api/text", api(http.HandlerFunc(s.handleText)))
	mux.Handle("/api/deck", api(deck))
	mux.Handle("/api/books", api(http.HandlerFunc(s.handleBooks)))
	mux.Handle("/health", api(http.HandlerFunc(s.handleHealth)))
	mux.HandleFunc("/ws/parse", s.handleWebSocket)

	return server.Chain(mux,
		logging.CombinedMiddleware,
		server.Timing,
		server.CORS(server.CORSConfig{AllowedOrigins: s.opts.AllowedOrigins}),
	)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, port int) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logging.GetLogger().Handler(), slog.LevelWarn),
	}

	if len(s.opts.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "web",
			"mode", "restricted",
			"allowed_origins_count", len(s.opts.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "web",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}
	if s.builds != nil {
		logging.Info("deck rate limiting enabled",
			"builds_per_minute", s.opts.BuildsPerMin,
			"burst_size", s.opts.BuildBurst)
	}
	logging.ServerStartup("web", "http", port,
		"websocket_protocol", "ws",
		"output_dir", s.svc.OutputDir())

	if s.opts.DeckTTL > 0 {
		sweepCtx, stopSweep := context.WithCancel(ctx)
		defer stopSweep()
		go s.sweepDecks(sweepCtx)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// sweepDecks prunes expired decks now and then periodically until ctx is
// cancelled.
func (s *Server) sweepDecks(ctx context.Context) {
	interval := max(s.opts.DeckTTL/2, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.pruneDecks()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) pruneDecks() int {
	n, err := s.svc.PruneDecks(s.opts.DeckTTL)
	if err != nil {
		logging.Warn("deck sweep failed", "error", err)
	}
	if n > 0 {
		logging.Info("pruned expired decks", "count", n, "ttl", s.opts.DeckTTL.String())
	}
	return n
}
