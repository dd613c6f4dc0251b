package care

import (
	"context"
	"sort"
	"sync"

	"github.com/zhouzirui/medibot/backend/internal/model/care"
)

// MemoryStore keeps records in process memory. Suitable for development and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	reminders    map[string]care.Reminder
	appointments map[string]care.Appointment
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reminders:    make(map[string]care.Reminder),
		appointments: make(map[string]care.Appointment),
	}
}

func (m *MemoryStore) InsertReminder(_ context.Context, reminder care.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[reminder.ID] = reminder
	return nil
}

func (m *MemoryStore) GetReminder(_ context.Context, id string) (care.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reminder, ok := m.reminders[id]
	if !ok {
		return care.Reminder{}, ErrNotFound
	}
	return reminder, nil
}

func (m *MemoryStore) ListReminders(_ context.Context, userID string) ([]care.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]care.Reminder, 0)
	for _, reminder := range m.reminders {
		if reminder.UserID == userID {
			out = append(out, reminder)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return scheduleLess(out[i].Date, out[i].Time, out[i].ID, out[j].Date, out[j].Time, out[j].ID)
	})
	return out, nil
}

func (m *MemoryStore) DeleteReminder(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reminders[id]; !ok {
		return ErrNotFound
	}
	delete(m.reminders, id)
	return nil
}

func (m *MemoryStore) InsertAppointment(_ context.Context, appointment care.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[appointment.ID] = appointment
	return nil
}

func (m *MemoryStore) GetAppointment(_ context.Context, id string) (care.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	appointment, ok := m.appointments[id]
	if !ok {
		return care.Appointment{}, ErrNotFound
	}
	return appointment, nil
}

func (m *MemoryStore) ListAppointments(_ context.Context, userID string) ([]care.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]care.Appointment, 0)
	for _, appointment := range m.appointments {
		if appointment.UserID == userID {
			out = append(out, appointment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return scheduleLess(out[i].Date, out[i].Time, out[i].ID, out[j].Date, out[j].Time, out[j].ID)
	})
	return out, nil
}

func (m *MemoryStore) DeleteAppointment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(m.appointments, id)
	return nil
}

// scheduleLess orders by date, then time; the id breaks ties so listings are stable.
func scheduleLess(dateA, timeA, idA, dateB, timeB, idB string) bool {
	if dateA != dateB {
		return dateA < dateB
	}
	if timeA != timeB {
		return timeA < timeB
	}
	return idA < idB
}
