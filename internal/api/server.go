package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/spaceapi-core/internal/audit"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/config"
	"github.com/nerrad567/spaceapi-core/internal/infrastructure/logging"
	"github.com/nerrad567/spaceapi-core/internal/notify"
	"github.com/nerrad567/spaceapi-core/internal/sensor"
	"github.com/nerrad567/spaceapi-core/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatusBuilder renders the status document.
type StatusBuilder interface {
	Build(ctx context.Context) ([]byte, error)
}

// Sessions issues and consumes update sessions.
type Sessions interface {
	Create(ctx context.Context, sensorKey string) (session.Token, error)
	VerifyAndConsume(ctx context.Context, sessionID, signature, sensorKey, value string) error
}

// SensorRegistry validates and stores sensor values.
type SensorRegistry interface {
	Lookup(dataKey string) (sensor.Spec, bool)
	Update(ctx context.Context, dataKey, value string) error
}

// HealthChecker is a dependency reported by /health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Status   StatusBuilder
	Sessions Sessions
	Registry SensorRegistry
	Store    HealthChecker

	// Optional.
	Notifier *notify.Notifier
	Hub      *Hub
	Audit    audit.Repository
	Metrics  *prometheus.Registry
	Version  string
}

// Server is the HTTP front end of the SpaceAPI server.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	status   StatusBuilder
	sessions Sessions
	registry SensorRegistry
	store    HealthChecker
	notifier *notify.Notifier
	hub      *Hub
	audit    audit.Repository
	metrics  *httpMetrics
	gatherer prometheus.Gatherer
	version  string

	server *http.Server
	cancel context.CancelFunc
}

// New creates a server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Status == nil {
		return nil, errors.New("status builder is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("sensor registry is required")
	}

	s := &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		status:   deps.Status,
		sessions: deps.Sessions,
		registry: deps.Registry,
		store:    deps.Store,
		notifier: deps.Notifier,
		hub:      deps.Hub,
		audit:    deps.Audit,
		version:  deps.Version,
	}

	if deps.Metrics != nil {
		m, err := newHTTPMetrics(deps.Metrics)
		if err != nil {
			return nil, fmt.Errorf("registering http metrics: %w", err)
		}
		s.metrics = m
		s.gatherer = deps.Metrics
	}

	return s, nil
}

// Handler returns the router with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening on the configured address. The listener runs in
// a background goroutine until Close is called.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub != nil {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("API server listening", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
