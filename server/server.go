package server

import (
	"context"
	"net/http"

	"flask-test-app/config"
	"flask-test-app/handlers"
	"flask-test-app/logging"
	"flask-test-app/metrics"
	"flask-test-app/middleware"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
)

// NewRouter registers the service routes on a gorilla/mux router.
func NewRouter(h *handlers.AppHandler) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.HandleFunc("/", h.Home).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/hello", h.Hello).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/add", h.Add).Methods(http.MethodPost)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	return r
}

// NewHandler wraps the router with the service-wide middleware chain.
func NewHandler(cfg config.Config, h *handlers.AppHandler) http.Handler {
	var handler http.Handler = NewRouter(h)
	handler = middleware.CORS(cfg.CORSOrigin)(handler)
	handler = middleware.Recovery(handler)
	handler = middleware.AccessLog(handler)
	handler = middleware.RequestID(handler)
	return handler
}

type Server struct {
	cfg config.Config
	srv *http.Server
}

func New(cfg config.Config, handler http.Handler) *Server {
	return &Server{
		cfg: cfg,
		srv: &http.Server{
			Addr:         cfg.Address(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down within
// cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://%s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "listen")
		}
		return nil
	case <-ctx.Done():
	}

	logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	logging.Logger.Info("Event ID: SERVER_STOPPED, Description: Server exited")
	return nil
}
