package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chessboard/internal/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
)

// User represents a registered user account
type User struct {
	UserID    string
	Username  string
	Email     string
	CreatedAt time.Time
}

// Token is an issued JWT with the session it belongs to
type Token struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

func userFromRecord(r *storage.UserRecord) *User {
	return &User{
		UserID:    r.UserID,
		Username:  r.Username,
		Email:     r.Email,
		CreatedAt: r.CreatedAt,
	}
}

// CreateUser hashes the password and stores a new account
func (s *Service) CreateUser(username, email, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	record := storage.UserRecord{
		UserID:       uuid.New().String(),
		Username:     strings.ToLower(username),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err = s.store.CreateUser(record); err != nil {
		return nil, err
	}

	return userFromRecord(&record), nil
}

// AuthenticateUser checks credentials given a username or an email
func (s *Service) AuthenticateUser(identifier, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	var (
		rec *storage.UserRecord
		err error
	)
	if strings.Contains(identifier, "@") {
		rec, err = s.store.GetUserByEmail(identifier)
	} else {
		rec, err = s.store.GetUserByUsername(identifier)
	}
	if err != nil {
		// Hash anyway so unknown users cost the same as wrong passwords
		auth.HashPassword(password)
		return nil, ErrInvalidCredentials
	}

	if err := auth.VerifyPassword(password, rec.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return userFromRecord(rec), nil
}

func (s *Service) UpdateLastLogin(userID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	return s.store.UpdateUserLastLogin(userID, time.Now().UTC())
}

func (s *Service) GetUserByID(userID string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	rec, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	return userFromRecord(rec), nil
}

// IssueToken opens a session for userID, replacing any previous one, and
// signs a token that names it
func (s *Service) IssueToken(userID string) (*Token, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := storage.SessionRecord{
		SessionID: uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.store.CreateSession(session); err != nil {
		return nil, err
	}

	claims := map[string]any{
		"username": user.Username,
		"email":    user.Email,
		"sid":      session.SessionID,
	}
	token, err := auth.GenerateHS256Token(s.jwtSecret, userID, claims, SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &Token{Token: token, SessionID: session.SessionID, ExpiresAt: session.ExpiresAt}, nil
}

// ValidateToken verifies the signature and that the session is still open
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	userID, claims, err := auth.ValidateHS256Token(s.jwtSecret, token)
	if err != nil {
		return "", nil, err
	}
	if s.store == nil {
		return userID, claims, nil
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", nil, errors.New("token has no session")
	}
	ok, err := s.store.IsSessionValid(sid, userID)
	if err != nil {
		return "", nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if !ok {
		return "", nil, errors.New("session expired or revoked")
	}
	return userID, claims, nil
}

// Logout closes a session
func (s *Service) Logout(sessionID string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	return s.store.DeleteSession(sessionID)
}
