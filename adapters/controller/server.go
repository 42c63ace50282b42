package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/Go-routine-4595/aquavigil/adapters/metrics"
	"github.com/Go-routine-4595/aquavigil/model"
)

const (
	moduleIDParam   = "id"
	hoursQuery      = "hours"
	maxContactBytes = 1 << 20
	shutdownTimeout = 5 * time.Second
)

type ServerConfig struct {
	Addr string `yaml:"Addr"`
}

// Server is the HTTP transport of the telemetry service.
type Server struct {
	addr    string
	svc     model.IService
	metrics *metrics.Metrics
	stream  http.HandlerFunc
	logger  zerolog.Logger
	handler http.Handler
}

// NewServer wires the routes. stream, when non nil, serves the live websocket feed.
func NewServer(conf ServerConfig, svc model.IService, m *metrics.Metrics, stream http.HandlerFunc, l zerolog.Logger) *Server {
	s := &Server{
		addr:    conf.Addr,
		svc:     svc,
		metrics: m,
		stream:  stream,
		logger:  l.With().Str("component", "http").Logger(),
	}
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeDetail(w, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", s.getBanner)
	r.Route("/api", func(r chi.Router) {
		r.Get("/modules", s.getModules)
		r.Get("/modules/{"+moduleIDParam+"}", s.getModule)
		r.Get("/modules/{"+moduleIDParam+"}/history", s.getModuleHistory)
		r.Get("/statistics", s.getStatistics)
		r.Get("/map-data", s.getMapData)
		r.Post("/contact", s.postContact)
		r.Get("/health", s.getHealth)
		r.Get("/alerts", s.getAlerts)
		if s.stream != nil {
			r.Get("/ws", s.stream)
		}
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
	)(r)
}

// Start binds the listen address and serves until ctx is canceled, then drains in-flight
// requests. A bind failure is returned before anything is spawned.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Join(err, fmt.Errorf("http server cannot listen on %s", s.addr))
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("http server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("http server stopped")
		}
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("http server shutdown")
			return
		}
		s.logger.Info().Msg("http server stopped")
	}()

	return nil
}

func (s *Server) getBanner(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Banner())
}

func (s *Server) getModules(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Modules())
}

func (s *Server) getModule(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Module(chi.URLParam(r, moduleIDParam))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) getModuleHistory(w http.ResponseWriter, r *http.Request) {
	hours := s.svc.DefaultHistoryHours()
	if raw := r.URL.Query().Get(hoursQuery); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("hours must be an integer, got %q: %w", raw, model.ErrValidation))
			return
		}
		hours = n
	}

	h, err := s.svc.History(chi.URLParam(r, moduleIDParam), hours)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, h)
}

func (s *Server) getStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Statistics()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) getMapData(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.MapData())
}

func (s *Server) getAlerts(w http.ResponseWriter, _ *http.Request) {
	alerts := s.svc.Alerts()
	if s.metrics != nil {
		s.metrics.ObserveAlerts(alerts.Alerts)
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Health())
}

func (s *Server) postContact(w http.ResponseWriter, r *http.Request) {
	var msg model.ContactMessage

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBytes))
	if err := dec.Decode(&msg); err != nil {
		s.writeError(w, r, fmt.Errorf("malformed contact message: %w", errors.Join(model.ErrValidation, err)))
		return
	}

	receipt, err := s.svc.Contact(msg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveContact()
	}
	s.writeJSON(w, http.StatusCreated, receipt)
}
