package web

import (
	"crypto/subtle"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"studycal/internal/config"
	"studycal/internal/courses"
	appLog "studycal/internal/log"
	"studycal/internal/planner"
	"studycal/internal/schedule"
)

// Server provides the JSON API, the HTML month page and the PNG preview.
type Server struct {
	cfg     *config.Config
	debug   bool
	catalog *courses.Catalog
	planner *planner.Planner

	router   *chi.Mux
	validate *validator.Validate
	page     *template.Template
}

//go:embed templates/*.html
var templateFS embed.FS

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, catalog *courses.Catalog, pl *planner.Planner, debug bool) *Server {
	s := &Server{
		cfg:      cfg,
		debug:    debug,
		catalog:  catalog,
		planner:  pl,
		router:   chi.NewRouter(),
		validate: config.NewValidator(),
		page:     template.Must(template.New("calendar.html").Funcs(pageFuncs).ParseFS(templateFS, "templates/calendar.html")),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler, wrapped with Basic Auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
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
	// Empty username or password means disabled.
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
		// /health is always public.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="StudyCal", charset="UTF-8"`)
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
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/preview.png", s.handlePreview)
	r.Get("/", s.handleIndex)
	r.Get("/calendar/{id}", s.handleCalendarPage)

	r.Route("/api", func(r chi.Router) {
		if len(s.cfg.CORSOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.cfg.CORSOrigins,
				AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
				MaxAge:         300,
			}))
		}
		r.Use(httprate.LimitByIP(s.cfg.RateLimit.Requests, time.Duration(s.cfg.RateLimit.WindowSeconds)*time.Second))

		r.Get("/quote", s.handleQuote)
		r.Post("/refresh", s.handleRefresh)
		r.Get("/courses", s.handleCourses)
		r.Route("/courses/{id}", func(r chi.Router) {
			r.Get("/subjects", s.handleSubjects)
			r.Get("/schedule", s.handleSchedule)
			r.Get("/schedule.ics", s.handleICS)
			r.Get("/month", s.handleMonth)
			r.Get("/agenda", s.handleAgenda)
			r.Put("/anchor", s.handleSetAnchor)
			r.Post("/pin", s.handlePin)
		})
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured PNG from disk. http.ServeFile picks
// the status for missing or unreadable files.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.Capture.Output)
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, schedule.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, schedule.ErrNotFound), errors.Is(err, courses.ErrUnknownCourse):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	switch {
	case status >= 500:
		appLog.Error("request failed", err, "path", r.URL.Path)
	case planner.IsInputError(err):
		appLog.Debug("request rejected", "path", r.URL.Path, "error", err.Error())
	}
	writeError(w, status, err.Error())
}

func parseIntDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
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
