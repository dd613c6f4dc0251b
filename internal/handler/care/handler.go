package care

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/medibot/backend/internal/logger"
	"github.com/zhouzirui/medibot/backend/internal/middleware"
	"github.com/zhouzirui/medibot/backend/internal/model/care"
	careService "github.com/zhouzirui/medibot/backend/internal/service/care"
	"github.com/zhouzirui/medibot/backend/pkg/utils"
)

// Planner is the part of the care service used by the handler.
type Planner interface {
	AddReminder(ctx context.Context, userID string, input careService.ReminderInput) (care.Reminder, error)
	ListReminders(ctx context.Context, userID string) ([]care.Reminder, error)
	DeleteReminder(ctx context.Context, userID, id string) error
	AddAppointment(ctx context.Context, userID string, input careService.AppointmentInput) (care.Appointment, error)
	ListAppointments(ctx context.Context, userID string) ([]care.Appointment, error)
	DeleteAppointment(ctx context.Context, userID, id string) error
}

// Handler 处理提醒与预约
type Handler struct {
	planner Planner
	log     zerolog.Logger
}

// New 创建提醒与预约处理器
func New(planner Planner) *Handler {
	return &Handler{planner: planner, log: logger.Component("care")}
}

// RegisterRoutes 注册提醒与预约相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/reminders", h.handleListReminders)
	r.Post("/reminders", h.handleAddReminder)
	r.Delete("/reminders/{id}", h.handleDeleteReminder)

	r.Get("/appointments", h.handleListAppointments)
	r.Post("/appointments", h.handleAddAppointment)
	r.Delete("/appointments/{id}", h.handleDeleteAppointment)
}

func (h *Handler) handleListReminders(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	reminders, err := h.planner.ListReminders(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reminders)
}

func (h *Handler) handleAddReminder(w http.ResponseWriter, r *http.Request) {
	var payload careService.ReminderInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, _ := middleware.UserID(r.Context())
	reminder, err := h.planner.AddReminder(r.Context(), userID, payload)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, reminder)
}

func (h *Handler) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	if err := h.planner.DeleteReminder(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	appointments, err := h.planner.ListAppointments(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, appointments)
}

func (h *Handler) handleAddAppointment(w http.ResponseWriter, r *http.Request) {
	var payload careService.AppointmentInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, _ := middleware.UserID(r.Context())
	appointment, err := h.planner.AddAppointment(r.Context(), userID, payload)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, appointment)
}

func (h *Handler) handleDeleteAppointment(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())
	if err := h.planner.DeleteAppointment(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, careService.ErrInvalid):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, careService.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, careService.ErrForbidden):
		utils.RespondError(w, http.StatusForbidden, "forbidden")
	default:
		h.log.Error().Err(err).Msg("care request failed")
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
