package core

import (
	"errors"
	"fmt"
	"strings"

	"agrisense.app/plantcare/internal/auth"
	"agrisense.app/plantcare/internal/store"
)

// ErrInvalidCredentials masks whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UserStore interface {
	CreateUser(user *store.User) error
	GetUserByEmail(email string) (*store.User, error)
}

type AccountService struct {
	users UserStore
}

func NewAccountService(users UserStore) *AccountService {
	return &AccountService{users: users}
}

// Register hashes the password and creates the user. Returns
// store.ErrEmailExists when the email is already taken.
func (s *AccountService) Register(email, password, name, phone, location, preferredLanguage string) (*store.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &store.User{
		Email:             strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:      hash,
		Name:              name,
		Phone:             phone,
		Location:          location,
		PreferredLanguage: NormalizeLanguage(preferredLanguage),
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the credentials and issues a signed token.
func (s *AccountService) Authenticate(email, password string) (*store.User, string, error) {
	user, err := s.users.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}
