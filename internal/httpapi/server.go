package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"

	"github.com/linchen/gokao/internal/engine"
	"github.com/linchen/gokao/internal/explain"
	"github.com/linchen/gokao/internal/llm"
	"github.com/linchen/gokao/internal/store"
)

const sessionName = "gokao-session"

// ProviderFactory builds an LLM provider from a user-supplied API key.
// The key is injected at login time, so the server starts without one.
type ProviderFactory func(ctx context.Context, apiKey string) (llm.Provider, error)

// Config wires the server's collaborators.
type Config struct {
	Password      string
	SessionSecret []byte

	Engine      *engine.Engine
	NewProvider ProviderFactory

	Events    store.EventRepo
	Snapshots store.SnapshotRepo

	// SnapshotPath is the file the session is saved to and restored
	// from. Empty disables file persistence (the DB archive remains).
	SnapshotPath string

	AllowedOrigins []string

	// SecureCookies marks the session cookie Secure. Leave false when
	// serving plain HTTP or the browser drops the cookie.
	SecureCookies bool
}

// Server serves the quiz session over a JSON API.
type Server struct {
	cfg     Config
	eng     *engine.Engine
	cookies *sessions.CookieStore

	mu   sync.Mutex
	expl *explain.Service
}

// NewServer creates a Server. The explanation service is nil until the
// first login supplies an API key.
func NewServer(cfg Config) *Server {
	cookies := sessions.NewCookieStore(cfg.SessionSecret)
	// The store's zero config is Secure + SameSite=None, which clients
	// refuse over plain HTTP.
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.SecureCookies,
	}

	return &Server{
		cfg:     cfg,
		eng:     cfg.Engine,
		cookies: cookies,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireLogin)

		pr.Get("/api/question", s.handleQuestion)
		pr.Post("/api/answer", s.handleAnswer)
		pr.Post("/api/mark", s.handleMark)
		pr.Post("/api/reset", s.handleReset)
		pr.Get("/api/progress", s.handleProgress)
		pr.Get("/api/search", s.handleSearch)

		pr.Get("/api/review/wrong", s.handleReviewWrong)
		pr.Get("/api/review/marked", s.handleReviewMarked)
		pr.Get("/api/review/explained", s.handleReviewExplained)

		pr.Post("/api/explanation", s.handleExplanation)
		pr.Post("/api/explanation/stream", s.handleExplanationStream)
		pr.Get("/api/usage", s.handleUsage)

		pr.Post("/api/snapshot/save", s.handleSnapshotSave)
		pr.Post("/api/snapshot/restore", s.handleSnapshotRestore)
	})

	return r
}

// explainService returns the explanation service once a login has
// configured one.
func (s *Server) explainService() *explain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expl
}

func (s *Server) configureProvider(ctx context.Context, apiKey string) error {
	provider, err := s.cfg.NewProvider(ctx, apiKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expl = explain.NewService(provider, s.eng.Store(), explain.DefaultConfig())
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
