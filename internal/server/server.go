// Package server is the development server of a pages project.
//
// Requests are answered from the staging, source and public directories in
// that order; the first directory holding the requested file wins. Extra
// route prefixes map to further directories. HTML responses carry a small
// client that reconnects to the server over a websocket and reloads the page,
// refreshes stylesheets or shows a build error overlay when told to.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/pages/internal/build"
	"github.com/conneroisu/pages/internal/config"
	"github.com/conneroisu/pages/internal/errors"
	"github.com/conneroisu/pages/internal/logging"
	"github.com/conneroisu/pages/internal/transform"
	"github.com/conneroisu/pages/internal/validation"
)

// HealthPath reports server state as JSON.
const HealthPath = "/__pages/health"

// Options configures a Server.
type Options struct {
	Logger logging.Logger
	// Errors holds the failing watch tasks shown by the health endpoint.
	Errors *errors.ErrorCollector
	// OpenBrowser opens url when the server configuration asks for it.
	// Defaults to the platform opener.
	OpenBrowser func(url string) error
}

// Server serves the project during development.
type Server struct {
	cfg    config.ServerConfig
	dirs   build.Dirs
	hub    *Hub
	errors *errors.ErrorCollector
	log    logging.Logger
	open   func(url string) error
	router chi.Router

	httpServer   *http.Server
	listener     net.Listener
	serverMutex  sync.RWMutex
	shutdownOnce sync.Once
}

// New creates a server for the directories of a pipeline.
func New(cfg config.ServerConfig, dirs build.Dirs, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	if opts.Errors == nil {
		opts.Errors = errors.NewErrorCollector()
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = openBrowser
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}

	s := &Server{
		cfg:    cfg,
		dirs:   dirs,
		errors: opts.Errors,
		log:    log.WithComponent("server"),
		open:   opts.OpenBrowser,
	}
	s.hub = NewHub(log, originPatterns(cfg)...)
	s.router = s.routes()
	return s
}

// Hub returns the live reload hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get(ReloadPath, s.hub.ServeHTTP)
	r.Get(HealthPath, s.handleHealth)

	// longest prefix first so nested routes win
	prefixes := make([]string, 0, len(s.cfg.Routes))
	for prefix := range s.cfg.Routes {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	for _, prefix := range prefixes {
		dir := s.cfg.Routes[prefix]
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(s.dirs.Root, dir)
		}
		prefix = "/" + strings.Trim(prefix, "/")
		h := http.StripPrefix(prefix, s.static(dir))
		r.Handle(prefix, h)
		r.Handle(prefix+"/*", h)
	}

	r.Handle("/*", s.static(s.dirs.Temp, s.dirs.Src, s.dirs.Public))
	return r
}

// static serves files from the first of roots that holds them.
func (s *Server) static(roots ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		for _, root := range roots {
			if root == "" {
				continue
			}
			if file, ok := lookup(root, name); ok {
				s.serveFile(w, r, file)
				return
			}
		}
		http.NotFound(w, r)
	})
}

func lookup(root, name string) (string, bool) {
	p := filepath.Join(root, filepath.FromSlash(name))
	info, err := os.Stat(p)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		p = filepath.Join(p, "index.html")
		if info, err = os.Stat(p); err != nil || info.IsDir() {
			return "", false
		}
	}
	return p, true
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, file string) {
	if transform.MediaType(file) == transform.MediaHTML {
		body, err := os.ReadFile(file)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(InjectScript(body))
		return
	}

	f, err := os.Open(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

type healthError struct {
	Task  string    `json:"task"`
	Error string    `json:"error"`
	Time  time.Time `json:"time"`
}

type healthResponse struct {
	Status  string        `json:"status"`
	Clients int           `json:"clients"`
	Errors  []healthError `json:"errors"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Clients: s.hub.ClientCount(), Errors: []healthError{}}
	for _, e := range s.errors.Entries() {
		resp.Errors = append(resp.Errors, healthError{Task: e.Task, Error: e.Err.Error(), Time: e.Timestamp})
	}
	sort.Slice(resp.Errors, func(i, j int) bool { return resp.Errors[i].Task < resp.Errors[j].Task })
	if len(resp.Errors) > 0 {
		resp.Status = "failing"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Addr returns the address the server listens on, once listening.
func (s *Server) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
}

// URL returns the browsable address of the server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Listen binds the configured address. Start calls it when needed.
func (s *Server) Listen() error {
	s.serverMutex.Lock()
	defer s.serverMutex.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Start serves until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.serverMutex.RLock()
	server, ln := s.httpServer, s.listener
	s.serverMutex.RUnlock()

	url := s.URL()
	s.log.Info(ctx, "Serving", "url", url)
	if s.cfg.Open {
		go func() {
			if err := s.open(url); err != nil {
				s.log.Warn(ctx, err, "failed to open browser")
			}
		}()
	}

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown disconnects browsers and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.log.Debug(ctx, "shutting down server")
		s.hub.Close()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})
	return shutdownErr
}

// originPatterns lists the hosts browsers may open the socket from.
func originPatterns(cfg config.ServerConfig) []string {
	port := fmt.Sprint(cfg.Port)
	return []string{
		net.JoinHostPort(cfg.Host, port),
		net.JoinHostPort("localhost", port),
		net.JoinHostPort("127.0.0.1", port),
	}
}

func openBrowser(url string) error {
	if err := validation.ValidateURL(url); err != nil {
		return fmt.Errorf("refusing to open browser: %w", err)
	}
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}
