// Package server serves the project API over HTTP. Routes live under /api and
// mirror the operations of project.Manager; the MCP tools are mounted at
// /mcp.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jlrickert/cli-toolkit/mylog"
	"github.com/jlrickert/contammap/pkg/mcpserver"
	"github.com/jlrickert/contammap/pkg/project"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	// Version is reported by the MCP endpoint.
	Version string

	// DisableMCP leaves /mcp unmounted.
	DisableMCP bool
}

// Server routes API requests to the projects of a manager.
type Server struct {
	mgr *project.Manager
	mux *http.ServeMux
}

// New builds the router for mgr.
func New(mgr *project.Manager, opts Options) *Server {
	s := &Server{mgr: mgr, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /api/projects", s.listProjects)
	s.mux.HandleFunc("POST /api/projects/create", s.createProject)
	s.mux.HandleFunc("POST /api/projects/load", s.loadProject)
	s.mux.HandleFunc("DELETE /api/projects/{id}", s.closeProject)
	s.mux.HandleFunc("GET /api/projects/{id}", s.projectInfo)
	s.mux.HandleFunc("GET /api/projects/{id}/bins", s.listBins)
	s.mux.HandleFunc("GET /api/projects/{id}/contigs", s.listContigs)
	s.mux.HandleFunc("GET /api/projects/{id}/contigs/{bin}", s.binContigs)
	s.mux.HandleFunc("GET /api/projects/{id}/motifs", s.listMotifs)
	s.mux.HandleFunc("POST /api/projects/{id}/data/heatmap", s.heatmap)
	s.mux.HandleFunc("POST /api/projects/{id}/data/update", s.updateAssignments)
	s.mux.HandleFunc("POST /api/projects/{id}/save", s.save)
	s.mux.HandleFunc("GET /api/projects/{id}/report", s.renderReport)

	if !opts.DisableMCP {
		s.mux.Handle("/mcp", mcpserver.HTTPHandler(mgr, opts.Version))
	}
	return s
}

// ServeHTTP logs each request and dispatches it.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	mylog.LoggerFromContext(r.Context()).Debug("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"elapsed", time.Since(start),
	)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. Request contexts inherit ctx's values, including its logger.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	lg := mylog.LoggerFromContext(ctx)
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	lg.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("server shutdown incomplete", "err", err)
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	lg.Info("server stopped")
	return ctx.Err()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
