package web

import (
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strings"

	"dutyboard/internal/board"
	"dutyboard/internal/config"
	appLog "dutyboard/internal/log"
	"dutyboard/internal/metrics"
)

// Server exposes the board state and the external stimulus endpoints:
// POST /api/refresh maps onto an immediate refresh (the became-visible /
// resume path) and POST /api/next onto a manual slideshow skip.
type Server struct {
	cfg   *config.Config
	store *board.Store
	mux   *http.ServeMux

	// refreshNow kicks the periodic trigger out of schedule.
	refreshNow func()
	// nextSlide requests a manual slideshow advance.
	nextSlide func()
}

// embeddedStatic contains the board page the kiosk browser displays.
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server. refreshNow and nextSlide may be nil
// when the corresponding stimulus is not wired (tests, --once runs).
func NewServer(cfg *config.Config, store *board.Store, refreshNow, nextSlide func()) *Server {
	s := &Server{
		cfg:        cfg,
		store:      store,
		mux:        http.NewServeMux(),
		refreshNow: refreshNow,
		nextSlide:  nextSlide,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Treat an empty username or password as disabled.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays unauthenticated for probes.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="dutyboard", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/board", s.handleBoard)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/api/next", s.handleNext)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
	s.mux.Handle("/metrics", metrics.Handler())

	// The board page itself (embedded via Go 1.16+ embed.FS). All
	// non-API paths fall back to this handler.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleBoard serves the current board snapshot the page polls.
func (s *Server) handleBoard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleRefresh maps the external "became visible / refresh now" stimulus
// onto an immediate out-of-schedule refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.refreshNow == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh not available")
		return
	}
	s.refreshNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

// handleNext maps the external "next slide" stimulus (keyboard skip) onto
// a manual slideshow advance. The rotation cadence is unaffected.
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.nextSlide == nil {
		writeError(w, http.StatusServiceUnavailable, "slideshow not running")
		return
	}
	s.nextSlide()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "advancing"})
}

// handlePreview serves the last rendered PNG snapshot from disk.
// http.ServeFile returns the appropriate status for missing files.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Preview.Path)
}

// staticFileServer serves the embedded board page.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "board page not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API paths never fall through to the static page; a missing API
		// handler must 404, not serve HTML.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
