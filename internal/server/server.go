// Package server exposes loaded models and clip playback over HTTP and
// websockets for a browser-side renderer.
package server

import (
	"context"
	"net"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/trinity-viewer/internal/assets"
	"github.com/Faultbox/trinity-viewer/internal/config"
	"github.com/Faultbox/trinity-viewer/internal/engine/animation"
	"github.com/Faultbox/trinity-viewer/internal/engine/model"
	"github.com/Faultbox/trinity-viewer/internal/logger"
	"github.com/Faultbox/trinity-viewer/pkg/formats"
)

// Options configures a Server.
type Options struct {
	Source       assets.Source // Must also implement assets.Lister for /api/models
	Addr         string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	TickInterval time.Duration // Websocket playback period
	FrameRate    float32       // Default clip frame rate
}

// OptionsFromConfig builds server options from the viewer config.
func OptionsFromConfig(cfg *config.Config, src assets.Source) Options {
	return Options{
		Source:       src,
		Addr:         cfg.Server.Addr,
		CORSOrigins:  cfg.Server.CORSOrigins,
		ReadTimeout:  cfg.Server.ReadTimeout,
		TickInterval: cfg.Playback.TickInterval,
		FrameRate:    cfg.Playback.DefaultFrameRate,
	}
}

// Server serves models from one asset source. Loaded models are kept for
// the server's lifetime; each request or stream poses its own skeleton copy.
type Server struct {
	opts   Options
	loader *model.Loader
	log    *zap.Logger

	mu     sync.Mutex
	models map[string]*model.Model
}

// New creates a server.
func New(opts Options) *Server {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 33 * time.Millisecond
	}
	l := model.NewLoader(opts.Source)
	if opts.FrameRate > 0 {
		l.DefaultFrameRate = opts.FrameRate
	}
	return &Server{
		opts:   opts,
		loader: l,
		log:    logger.Named("server"),
		models: make(map[string]*model.Model),
	}
}

// Handler returns the routed handler with recovery, access logging and CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/models", s.handleModels).Methods(http.MethodGet)
	api.HandleFunc("/models/{path:.+\\.trmdl}/geometry/{mesh}", s.handleGeometry).Methods(http.MethodGet)
	api.HandleFunc("/models/{path:.+\\.trmdl}/skeleton", s.handleSkeleton).Methods(http.MethodGet)
	api.HandleFunc("/models/{path:.+\\.trmdl}/clips/{clip:.+}", s.handleClip).Methods(http.MethodGet)
	api.HandleFunc("/models/{path:.+\\.trmdl}", s.handleModel).Methods(http.MethodGet)
	r.HandleFunc("/ws/models/{path:.+\\.trmdl}/clips/{clip:.+}", s.handleStream)

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins(s.opts.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)(h)
	h = handlers.LoggingHandler(logger.Writer("http"), h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.log)),
		handlers.PrintRecoveryStack(true),
	)(h)
	return h
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.opts.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	return nil
}

// loadModel returns a loaded model, loading it on first use.
func (s *Server) loadModel(name string) (*model.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.models[name]; ok {
		return m, nil
	}
	m, err := s.loader.Load(name)
	if err != nil {
		return nil, err
	}
	s.models[name] = m
	return m, nil
}

// clip loads a clip named relative to the model's directory.
func (s *Server) clip(m *model.Model, name string) (*animation.Clip, error) {
	return s.loader.LoadClip(path.Join(path.Dir(m.Path), name))
}

func (s *Server) listModels() ([]string, error) {
	l, ok := s.opts.Source.(assets.Lister)
	if !ok {
		return nil, errors.New("asset source cannot list files")
	}
	return l.List(formats.ExtModel)
}
