package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/medibot/backend/internal/logger"
	"github.com/zhouzirui/medibot/backend/internal/middleware"
	"github.com/zhouzirui/medibot/backend/internal/model/account"
	accountService "github.com/zhouzirui/medibot/backend/internal/service/account"
	"github.com/zhouzirui/medibot/backend/internal/session"
	"github.com/zhouzirui/medibot/backend/pkg/utils"
)

// Accounts is the part of the account service used by the handler.
type Accounts interface {
	Register(ctx context.Context, input accountService.RegisterInput) (account.User, error)
	Authenticate(ctx context.Context, email, password string) (account.User, error)
	Get(ctx context.Context, id string) (account.User, error)
}

// Handler 处理注册、登录与登出
type Handler struct {
	accounts     Accounts
	sessions     session.Store
	cookieSecure bool
	sessionTTL   time.Duration
	log          zerolog.Logger
}

// New 创建认证处理器
func New(accounts Accounts, sessions session.Store, cookieSecure bool, sessionTTL time.Duration) *Handler {
	return &Handler{
		accounts:     accounts,
		sessions:     sessions,
		cookieSecure: cookieSecure,
		sessionTTL:   sessionTTL,
		log:          logger.Component("auth"),
	}
}

// RegisterRoutes 注册认证相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.With(middleware.RequireUser(h.sessions)).Get("/me", h.handleMe)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload accountService.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.Register(r.Context(), payload)
	switch {
	case errors.Is(err, accountService.ErrEmailTaken):
		utils.RespondError(w, http.StatusConflict, "email already registered")
		return
	case errors.Is(err, accountService.ErrInvalid):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Msg("register failed")
		utils.RespondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	h.log.Info().Str("user", user.ID).Msg("account registered")
	utils.RespondJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, accountService.ErrInvalidCredentials) {
		utils.RespondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("login failed")
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create session")
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
	utils.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			h.log.Warn().Err(err).Msg("failed to delete session")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	user, err := h.accounts.Get(r.Context(), userID)
	if errors.Is(err, accountService.ErrUserNotFound) {
		utils.RespondError(w, http.StatusUnauthorized, "login required")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load user")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}
