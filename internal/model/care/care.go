package care

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Reminder is a dated note owned by a single user.
// Date and Time hold DateLayout and TimeLayout strings so they sort chronologically as text.
type Reminder struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// At combines the calendar date and the clock time.
func (r Reminder) At() time.Time {
	return combine(r.Date, r.Time)
}

// Appointment is a scheduled doctor visit owned by a single user.
type Appointment struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	DoctorName string `json:"doctorName"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

// At combines the calendar date and the clock time.
func (a Appointment) At() time.Time {
	return combine(a.Date, a.Time)
}

// combine returns the zero time when either part does not parse.
func combine(date, clock string) time.Time {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}
	}
	hm, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, time.UTC)
}
