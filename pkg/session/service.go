// Package session is the identity context: it authenticates users, issues
// and resolves session tokens, and notifies interested parties on sign-out
// so per-user state can be dropped.
package session

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"shelfsync/internal/util"
	"shelfsync/pkg/domain"
	"shelfsync/pkg/store"
)

var (
	// ErrInvalidCredentials is returned on unknown email or wrong password.
	// The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidEmail is returned for malformed email addresses.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrWeakPassword is returned for passwords under the minimum length.
	ErrWeakPassword = errors.New("password too short")
)

const minPasswordLength = 8

// Service manages user identity and session lifecycle.
type Service struct {
	records   store.RecordStore
	tokens    TokenStore
	onSignOut func(userID string)
}

// NewService constructs the identity context. onSignOut, when set, is called
// with the user id after a session ends; the library cache hooks its Forget
// there.
func NewService(records store.RecordStore, tokens TokenStore, onSignOut func(userID string)) (*Service, error) {
	if records == nil {
		return nil, errors.New("record store required")
	}
	if tokens == nil {
		return nil, errors.New("token store required")
	}
	return &Service{records: records, tokens: tokens, onSignOut: onSignOut}, nil
}

// SignUp registers a new user and opens a session.
func (s *Service) SignUp(email, password string) (domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return domain.User{}, "", ErrWeakPassword
	}
	if _, exists, err := s.records.GetUserByEmail(email); err != nil {
		return domain.User{}, "", fmt.Errorf("lookup email: %w", err)
	} else if exists {
		return domain.User{}, "", ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.records.CreateUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("create user: %w", err)
	}
	token, err := s.tokens.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("open session: %w", err)
	}
	return user, token, nil
}

// SignIn authenticates a user and opens a session.
func (s *Service) SignIn(email, password string) (domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, ok, err := s.records.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("lookup email: %w", err)
	}
	if !ok || !CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := s.tokens.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("open session: %w", err)
	}
	return user, token, nil
}

// SignOut ends a session and fires the sign-out hook. An unknown token is a
// no-op.
func (s *Service) SignOut(token string) error {
	userID, ok, err := s.tokens.GetUserIDByToken(token)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	if err := s.tokens.DeleteSession(token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if ok && s.onSignOut != nil {
		s.onSignOut(userID)
	}
	return nil
}

// UserFromToken resolves a session token to its user.
func (s *Service) UserFromToken(token string) (domain.User, bool, error) {
	userID, ok, err := s.tokens.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false, err
	}
	return s.records.GetUserByID(userID)
}
