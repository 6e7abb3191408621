package services

import (
	"context"
	"log"
	"sync"

	"github.com/lexflow/backend/pkg/auth"
	appErrors "github.com/lexflow/backend/pkg/errors"
	"github.com/lexflow/backend/pkg/utils"
)

// actorRecord is the stored form of a registered actor
type actorRecord struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PasswordHash string
}

// AuthService manages the in-memory actor directory and issues
// session tokens. The role carried in the token is a tag used to
// stamp authorship and comments; it grants no permissions.
type AuthService struct {
	actorsByEmail map[string]*actorRecord
	mu            sync.RWMutex
}

// NewAuthService creates a new AuthService
func NewAuthService() *AuthService {
	return &AuthService{
		actorsByEmail: make(map[string]*actorRecord),
	}
}

// RegisterActor adds an actor to the directory
func (s *AuthService) RegisterActor(ctx context.Context, name, email, password, role string) (*auth.ActorSession, error) {
	if email == "" || password == "" {
		return nil, appErrors.NewValidationError("email", "email and password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to hash password", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.actorsByEmail[email]; exists {
		return nil, appErrors.NewConflictError("Actor", "email", email)
	}

	record := &actorRecord{
		ID:           utils.GenerateID(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	}
	s.actorsByEmail[email] = record

	return &auth.ActorSession{ID: record.ID, Name: record.Name, Email: record.Email, Role: record.Role}, nil
}

// Login verifies credentials and returns a signed session token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *auth.ActorSession, error) {
	s.mu.RLock()
	record, ok := s.actorsByEmail[email]
	s.mu.RUnlock()

	if !ok || !auth.VerifyPassword(password, record.PasswordHash) {
		return "", nil, appErrors.NewUnauthorizedError("invalid email or password")
	}

	session := auth.ActorSession{ID: record.ID, Name: record.Name, Email: record.Email, Role: record.Role}
	token, err := auth.GenerateToken(session)
	if err != nil {
		return "", nil, appErrors.NewInternalError("failed to issue session token", err)
	}

	return token, &session, nil
}

// ValidateSession parses and validates a session token
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, appErrors.NewUnauthorizedError("invalid or expired token")
	}
	return claims, nil
}

// SeedActor registers an actor if the email is free, logging instead
// of failing when it is already taken. Used at startup.
func (s *AuthService) SeedActor(ctx context.Context, name, email, password, role string) {
	if _, err := s.RegisterActor(ctx, name, email, password, role); err != nil {
		if !appErrors.IsConflict(err) {
			log.Printf("⚠️ Failed to seed actor %s: %v", email, err)
		}
	}
}
