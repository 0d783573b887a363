// Package manage provides HTTP handlers for running the optimizer and reading the catalog.
package manage

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"k8s.io/klog/v2"

	"github.com/tstromberg/bildlager/pkg/bildlager"
	"github.com/tstromberg/bildlager/pkg/catalog"
)

// Server serves the optimizer, the catalog and the images themselves.
type Server struct {
	// o holds the run lock shared with watch mode.
	o    *bildlager.Optimizer
	cc   *catalog.Config
	opts []catalog.Option
}

// New creates a new server. Runs started over HTTP share o's run lock and
// write history.
func New(o *bildlager.Optimizer, cc *catalog.Config, opts ...catalog.Option) *Server {
	return &Server{o: o, cc: cc, opts: opts}
}

// Router returns the routes of the server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/optimize", s.OptimizeHandler())
	r.Get("/images.json", s.CatalogHandler())
	r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(s.cc.Root))))
	return r
}

// quality returns the requested quality, or the configured one when absent.
func (s *Server) quality(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("quality")
	if raw == "" {
		return s.o.Config().Quality, nil
	}
	q, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return q, validation.Validate(q, validation.Min(bildlager.MinQuality), validation.Max(bildlager.MaxQuality))
}

// OptimizeHandler runs the optimizer and streams its run log.
func (s *Server) OptimizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := s.quality(r)
		if err != nil {
			http.Error(w, "quality must be an integer between 60 and 100", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		klog.Infof("optimize requested by %s (quality %d)", r.RemoteAddr, q)
		_, err = s.o.With(s.o.Config().WithQuality(q), w).TryRun()
		if errors.Is(err, bildlager.ErrBusy) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if err != nil {
			klog.Errorf("optimize: %v", err)
		}
	}
}

// CatalogHandler returns the catalog document. It waits for a run in progress
// so that no image is read half written.
func (s *Server) CatalogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := s.o.ReadLocker()
		l.Lock()
		res, err := catalog.New(s.cc, s.opts...).Index(r.Context())
		l.Unlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err != nil {
			klog.Errorf("catalog: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
		}
		if err := res.WriteJSON(w); err != nil {
			klog.Errorf("write catalog: %v", err)
		}
	}
}
