package handler

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/medibot/backend/internal/handler/auth"
	"github.com/zhouzirui/medibot/backend/internal/handler/care"
	"github.com/zhouzirui/medibot/backend/internal/handler/chat"
	"github.com/zhouzirui/medibot/backend/internal/handler/report"
	"github.com/zhouzirui/medibot/backend/internal/logger"
	"github.com/zhouzirui/medibot/backend/internal/middleware"
	"github.com/zhouzirui/medibot/backend/internal/session"
	"github.com/zhouzirui/medibot/backend/pkg/utils"
)

// Dependencies are the services the HTTP layer needs.
type Dependencies struct {
	Accounts       auth.Accounts
	Sessions       session.Store
	Composer       chat.Composer
	Reports        report.Summarizer
	Planner        care.Planner
	CookieSecure   bool
	SessionTTL     time.Duration
	AllowedOrigins []string
	MaxUploadBytes int64
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger.Component("http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authHandler := auth.New(deps.Accounts, deps.Sessions, deps.CookieSecure, deps.SessionTTL)
	chatHandler := chat.New(deps.Composer, originChecker(deps.AllowedOrigins))
	reportHandler := report.New(deps.Reports, deps.MaxUploadBytes)
	careHandler := care.New(deps.Planner)

	r.Route("/api", func(api chi.Router) {
		authHandler.RegisterRoutes(api)

		// 以下路由需要登录
		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireUser(deps.Sessions))
			chatHandler.RegisterRoutes(protected)
			reportHandler.RegisterRoutes(protected)
			careHandler.RegisterRoutes(protected)
		})
	})

	return r
}

// originChecker accepts same-origin websocket handshakes and those from allowed origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
