package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/geonate/geonate/internal/config"
	"github.com/geonate/geonate/internal/raster"
)

// Server serves a directory of GeoTIFFs over HTTP.
type Server struct {
	cfg   config.ServerConfig
	cmap  string
	cache *raster.Cache
	http  *http.Server
}

// New creates a server for the given configuration. The default
// colormap is used for previews that don't pick one.
func New(cfg *config.Config) *Server {
	s := &Server{
		cfg:   cfg.Server,
		cmap:  cfg.Colormap,
		cache: raster.NewCache(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/rasters", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/rasters/{name}/info", s.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/rasters/{name}/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/rasters/{name}/preview.png", s.handlePreview).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.RecoveryHandler()(h)
	h = handlers.LoggingHandler(os.Stderr, h)

	s.http = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	return s
}

// Handler returns the server's HTTP handler, for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if _, err := os.Stat(s.cfg.Root); err != nil {
		return fmt.Errorf("raster root: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving %s on http://%s", s.cfg.Root, s.cfg.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
