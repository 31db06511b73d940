package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hpungsan/nesta/internal/ops"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// NewServer creates and configures the HTTP server for the Nesta dashboard.
func NewServer(env *ops.Env, version, bind string, port int) (*http.Server, error) {
	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		env:      env,
		renderer: NewRenderer(templateSub, version, env.Log),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/packs", http.StatusFound)
	})
	mux.HandleFunc("GET /packs", h.HandlePacks)
	mux.HandleFunc("GET /packs/{id}", h.HandlePack)
	mux.HandleFunc("GET /packs/{id}/screenshot", h.HandleScreenshot)
	mux.HandleFunc("GET /packs/{id}/pages/{page}", h.HandlePreview)
	mux.HandleFunc("POST /packs/{id}/install", h.HandleInstall)
	mux.HandleFunc("GET /site", h.HandleSite)
	mux.HandleFunc("POST /site/undo", h.HandleUndo)
	mux.HandleFunc("POST /site/reset", h.HandleReset)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           securityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and shuts it down on SIGINT/SIGTERM.
func Run(env *ops.Env, srv *http.Server) error {
	log := env.Log
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	if log != nil {
		log.Info("dashboard running", "url", "http://"+srv.Addr)
		if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
			log.Warn("dashboard is binding to all interfaces and may be accessible from the network")
		}
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		if log != nil {
			log.Info("shutting down dashboard")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
