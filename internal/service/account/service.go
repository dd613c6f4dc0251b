package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/zhouzirui/medibot/backend/internal/model/account"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalid            = errors.New("invalid input")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	DOB            string `json:"dob"`
	Disease        string `json:"disease"`
	CaretakerName  string `json:"caretakerName"`
	CaretakerPhone string `json:"caretakerPhone"`
}

// Store persists users. Insert returns ErrEmailTaken for a duplicate email; lookups return ErrUserNotFound.
type Store interface {
	Insert(ctx context.Context, user account.User) error
	GetByEmail(ctx context.Context, email string) (account.User, error)
	GetByID(ctx context.Context, id string) (account.User, error)
}

// Service handles registration and login.
type Service struct {
	store Store
	cost  int
}

// NewService creates the account service.
func NewService(store Store) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (account.User, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return account.User{}, fmt.Errorf("%w: username, email and password are required", ErrInvalid)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return account.User{}, fmt.Errorf("%w: malformed email", ErrInvalid)
	}
	if len(input.Password) < MinPasswordLength {
		return account.User{}, fmt.Errorf("%w: password must have at least %d characters", ErrInvalid, MinPasswordLength)
	}

	var dob *time.Time
	if raw := strings.TrimSpace(input.DOB); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return account.User{}, fmt.Errorf("%w: date of birth must look like 2006-01-02", ErrInvalid)
		}
		dob = &parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return account.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := account.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		PasswordHash:   string(hash),
		Phone:          strings.TrimSpace(input.Phone),
		Address:        strings.TrimSpace(input.Address),
		DOB:            dob,
		Disease:        strings.TrimSpace(input.Disease),
		CaretakerName:  strings.TrimSpace(input.CaretakerName),
		CaretakerPhone: strings.TrimSpace(input.CaretakerPhone),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, user); err != nil {
		return account.User{}, err
	}
	return user, nil
}

// Authenticate checks the credentials and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (account.User, error) {
	user, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return account.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return account.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return account.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (account.User, error) {
	return s.store.GetByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
