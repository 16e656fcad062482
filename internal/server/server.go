// Package server exposes the contract and signing sessions over HTTP.
//
// Contract endpoints act on the stored record directly. Session endpoints
// drive a per-browser [session.Coordinator] identified by the lc_session
// cookie, so the envelope, capture and celebration state live server side.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/lovecontract/internal/metrics"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/session"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "lc_session"

// maxBodyBytes bounds request bodies. It leaves room for a blob of
// blob.MaxBytes plus the JSON envelope.
const maxBodyBytes = 3 << 20

// Server serves the HTTP API.
type Server struct {
	store    store.Store
	sessions *session.Registry
	key      string
	clock    clock.Clock
	logger   *log.Logger
	metrics  *metrics.Metrics
	secure   bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithClock sets the clock used for signature and acceptance timestamps.
func WithClock(c clock.Clock) Option { return func(s *Server) { s.clock = c } }

// WithKey sets the contract record key.
func WithKey(key string) Option { return func(s *Server) { s.key = key } }

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies() Option { return func(s *Server) { s.secure = true } }

// New creates a server over st. sessions may be nil to disable the session
// endpoints.
func New(st store.Store, sessions *session.Registry, opts ...Option) *Server {
	s := &Server{store: st, sessions: sessions, key: contract.DocumentID}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// SessionFactory returns a registry factory that builds a coordinator over st
// and replays the stored record into it. A failed load does not fail the
// session; it surfaces as a notice.
func SessionFactory(st store.Store, opts ...session.Option) session.Factory {
	return func(ctx context.Context) (*session.Coordinator, error) {
		c := session.New(st, opts...)
		_ = c.Load(ctx)
		return c, nil
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer, s.requestID, s.logRequests)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/contract", func(r chi.Router) {
		r.Get("/", s.handleGetContract)
		r.Get("/print.png", s.handlePrint)
		r.Post("/accept", s.handleAccept)
		r.Get("/signatures/{slot}.png", s.handleGetSignature)
		r.Put("/signatures/{slot}", s.handlePutSignature)
		r.Delete("/signatures/{slot}", s.handleClearSignature)
	})

	if s.sessions != nil {
		r.Route("/api/session", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.handleSession)
			r.Delete("/", s.handleEndSession)
			r.Post("/view", s.handleNavigate)
			r.Post("/envelope", s.handleOpenEnvelope)
			r.Post("/accept", s.handleSessionAccept)
			r.Delete("/signatures/{slot}", s.handleSessionClear)
			r.Get("/displays/{slot}.png", s.handleDisplay)
			r.Post("/capture/strokes", s.handleStrokes)
			r.Post("/capture/clear", s.handleClearCapture)
			r.Post("/capture/save", s.handleSaveCapture)
			r.Delete("/capture", s.handleCancelCapture)
			r.Post("/capture/{slot}", s.handleOpenCapture)
			r.Post("/celebration/dismiss", s.handleDismiss)
			r.Get("/notices", s.handleNotices)
		})
	}
	return r
}

// HTTPServer wraps the handler in an http.Server with the given timeouts.
func (s *Server) HTTPServer(addr string, read, write time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       read,
		ReadHeaderTimeout: read,
		WriteTimeout:      write,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
