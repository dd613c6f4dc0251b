package care

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/medibot/backend/internal/model/care"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrForbidden = errors.New("record belongs to another user")
	ErrInvalid   = errors.New("invalid input")
)

// ReminderInput is the user-supplied part of a reminder.
type ReminderInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// AppointmentInput is the user-supplied part of an appointment.
type AppointmentInput struct {
	DoctorName string `json:"doctorName"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// Store persists reminders and appointments. Get* return ErrNotFound for unknown ids.
type Store interface {
	InsertReminder(ctx context.Context, reminder care.Reminder) error
	GetReminder(ctx context.Context, id string) (care.Reminder, error)
	ListReminders(ctx context.Context, userID string) ([]care.Reminder, error)
	DeleteReminder(ctx context.Context, id string) error

	InsertAppointment(ctx context.Context, appointment care.Appointment) error
	GetAppointment(ctx context.Context, id string) (care.Appointment, error)
	ListAppointments(ctx context.Context, userID string) ([]care.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// Service manages the reminders and appointments of each user.
type Service struct {
	store Store
}

// NewService creates the care planner on top of store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// AddReminder validates input and stores a new reminder for userID.
func (s *Service) AddReminder(ctx context.Context, userID string, input ReminderInput) (care.Reminder, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return care.Reminder{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	date, clock, err := parseSchedule(input.Date, input.Time)
	if err != nil {
		return care.Reminder{}, err
	}

	reminder := care.Reminder{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Date:        date,
		Time:        clock,
	}
	if err := s.store.InsertReminder(ctx, reminder); err != nil {
		return care.Reminder{}, fmt.Errorf("failed to save reminder: %w", err)
	}
	return reminder, nil
}

// ListReminders returns the reminders of userID ordered by date then time.
func (s *Service) ListReminders(ctx context.Context, userID string) ([]care.Reminder, error) {
	return s.store.ListReminders(ctx, userID)
}

// DeleteReminder removes a reminder owned by userID.
func (s *Service) DeleteReminder(ctx context.Context, userID, id string) error {
	reminder, err := s.store.GetReminder(ctx, id)
	if err != nil {
		return err
	}
	if reminder.UserID != userID {
		return ErrForbidden
	}
	return s.store.DeleteReminder(ctx, id)
}

// AddAppointment validates input and stores a new appointment for userID.
func (s *Service) AddAppointment(ctx context.Context, userID string, input AppointmentInput) (care.Appointment, error) {
	doctor := strings.TrimSpace(input.DoctorName)
	if doctor == "" {
		return care.Appointment{}, fmt.Errorf("%w: doctor name is required", ErrInvalid)
	}
	date, clock, err := parseSchedule(input.Date, input.Time)
	if err != nil {
		return care.Appointment{}, err
	}

	appointment := care.Appointment{
		ID:         uuid.NewString(),
		UserID:     userID,
		DoctorName: doctor,
		Date:       date,
		Time:       clock,
	}
	if err := s.store.InsertAppointment(ctx, appointment); err != nil {
		return care.Appointment{}, fmt.Errorf("failed to save appointment: %w", err)
	}
	return appointment, nil
}

// ListAppointments returns the appointments of userID ordered by date then time.
func (s *Service) ListAppointments(ctx context.Context, userID string) ([]care.Appointment, error) {
	return s.store.ListAppointments(ctx, userID)
}

// DeleteAppointment removes an appointment owned by userID.
func (s *Service) DeleteAppointment(ctx context.Context, userID, id string) error {
	appointment, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if appointment.UserID != userID {
		return ErrForbidden
	}
	return s.store.DeleteAppointment(ctx, id)
}

// parseSchedule normalises a date and a clock time into their layouts.
func parseSchedule(date, clock string) (string, string, error) {
	day, err := time.Parse(care.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", "", fmt.Errorf("%w: date must look like %s", ErrInvalid, care.DateLayout)
	}
	hm, err := time.Parse(care.TimeLayout, strings.TrimSpace(clock))
	if err != nil {
		return "", "", fmt.Errorf("%w: time must look like %s", ErrInvalid, care.TimeLayout)
	}
	return day.Format(care.DateLayout), hm.Format(care.TimeLayout), nil
}
