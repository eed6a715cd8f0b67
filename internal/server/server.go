package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/aiqa/internal/bots"
	"github.com/ziadkadry99/aiqa/internal/history"
	"github.com/ziadkadry99/aiqa/internal/theme"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	AllowAll bool // allow all CORS origins (dev mode)
}

// ThemeSource reports the active theme.
type ThemeSource interface {
	Current() theme.Theme
}

// BotSource reports request counters and the detected host.
type BotSource interface {
	Stats() bots.Stats
	ServerType() bots.ServerType
}

// BrowserSource reports how often the browser has been replaced.
type BrowserSource interface {
	Restarts() int64
}

// Deps are the components the status endpoints read from. History may be
// nil when request logging is disabled.
type Deps struct {
	Themes  ThemeSource
	Bot     BotSource
	Browser BrowserSource
	History *history.Store
}

// Status is the /status response.
type Status struct {
	Theme           string `json:"theme"`
	ServerType      string `json:"server_type"`
	BrowserRestarts int64  `json:"browser_restarts"`
	Handled         int64  `json:"handled"`
	Failed          int64  `json:"failed"`
	Requests24h     int    `json:"requests_24h"`
	Uptime          string `json:"uptime"`
}

// Server is the local status server.
type Server struct {
	cfg        Config
	deps       Deps
	started    time.Time
	router     chi.Router
	httpServer *http.Server
}

// New creates a status server.
func New(cfg Config, deps Deps) *Server {
	s := &Server{cfg: cfg, deps: deps, started: time.Now()}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/status", s.handleStatus)
	r.Get("/requests", s.handleRequests)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := Status{Uptime: time.Since(s.started).Round(time.Second).String()}
	if s.deps.Themes != nil {
		st.Theme = s.deps.Themes.Current().String()
	}
	if s.deps.Bot != nil {
		stats := s.deps.Bot.Stats()
		st.Handled, st.Failed = stats.Handled, stats.Failed
		st.ServerType = s.deps.Bot.ServerType().String()
	}
	if s.deps.Browser != nil {
		st.BrowserRestarts = s.deps.Browser.Restarts()
	}
	if s.deps.History != nil {
		n, err := s.deps.History.CountSince(r.Context(), time.Now().Add(-24*time.Hour))
		if err != nil {
			log.Printf("server: counting requests: %v", err)
		}
		st.Requests24h = n
	}
	writeJSON(w, http.StatusOK, st)
}

type requestView struct {
	ID        string    `json:"id"`
	MessageID int64     `json:"message_id"`
	GroupID   int64     `json:"group_id,omitempty"`
	Mode      string    `json:"mode"`
	Question  string    `json:"question"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "request history is disabled"})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	reqs, err := s.deps.History.Recent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	out := make([]requestView, 0, len(reqs))
	for _, q := range reqs {
		out = append(out, requestView{
			ID:        q.ID,
			MessageID: q.MessageID,
			GroupID:   q.GroupID,
			Mode:      q.Mode,
			Question:  q.Question,
			Status:    string(q.Status),
			Error:     q.Error,
			LatencyMS: q.Latency.Milliseconds(),
			CreatedAt: q.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: writing response: %v", err)
	}
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address. It returns
// http.ErrServerClosed once Shutdown has been called, even if Shutdown ran
// first.
func (s *Server) Start() error {
	log.Printf("aiqa: status server listening on %s", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
