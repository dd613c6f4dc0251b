package account

import "time"

// User is a registered patient account.
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Phone          string     `json:"phone,omitempty"`
	Address        string     `json:"address,omitempty"`
	DOB            *time.Time `json:"dob,omitempty"`
	Disease        string     `json:"disease,omitempty"`
	CaretakerName  string     `json:"caretakerName,omitempty"`
	CaretakerPhone string     `json:"caretakerPhone,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
