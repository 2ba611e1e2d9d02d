// Package session holds the signed-in user and persists it across runs.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"blitzscan/internal/models"
	"blitzscan/internal/store"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"
)

// UserKey is where the signed-in user is persisted.
const UserKey = "blitz_scan_user"

// Authenticator is the subset of the auth backend a session needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, form models.RegisterForm) error
	ChangePassword(ctx context.Context, userID models.UserID, oldPassword, newPassword string) error
	UpdateProfileImage(ctx context.Context, userID models.UserID, filename string, image io.Reader) (string, error)
}

type Session struct {
	mu     sync.RWMutex
	store  store.Store
	auth   Authenticator
	user   *models.User
	logger *logger.Logger
}

// Load restores the persisted user, if any. A corrupt entry is discarded and
// the session starts signed out.
func Load(ctx context.Context, s store.Store, auth Authenticator, l *logger.Logger) (*Session, error) {
	if l == nil {
		l = logger.Default()
	}
	sess := &Session{store: s, auth: auth, logger: l}

	data, err := s.Get(ctx, UserKey)
	if errors.Is(err, errors.ErrNotFound) {
		return sess, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil || user.Email == "" {
		l.WithFields(logger.Fields{"key": UserKey}).Warn("discarding unreadable saved session")
		if err := s.Delete(ctx, UserKey); err != nil {
			return nil, err
		}
		return sess, nil
	}
	sess.user = &user
	return sess, nil
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Email identifies the history owner. It is empty when signed out.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Email
}

func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(ctx, user); err != nil {
		return nil, err
	}
	s.user = user

	s.logger.WithFields(logger.Fields{"email": user.Email}).Info("signed in")
	u := *user
	return &u, nil
}

// Register creates the account and signs in with the same credentials.
func (s *Session) Register(ctx context.Context, form models.RegisterForm) (*models.User, error) {
	if err := s.auth.Register(ctx, form); err != nil {
		return nil, err
	}
	return s.Login(ctx, form.Email, form.Password)
}

func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	if err := s.store.Delete(ctx, UserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Session) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	user := s.User()
	if user == nil {
		return errors.ErrNotAuthenticated
	}
	return s.auth.ChangePassword(ctx, user.ID, oldPassword, newPassword)
}

// UpdateProfileImage uploads the image and keeps the returned reference on
// the saved user.
func (s *Session) UpdateProfileImage(ctx context.Context, filename string, image io.Reader) (string, error) {
	user := s.User()
	if user == nil {
		return "", errors.ErrNotAuthenticated
	}

	ref, err := s.auth.UpdateProfileImage(ctx, user.ID, filename, image)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ref, nil
	}
	updated := *s.user
	updated.ProfileImage = ref
	if err := s.persist(ctx, &updated); err != nil {
		return "", err
	}
	s.user = &updated
	return ref, nil
}

func (s *Session) persist(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, UserKey, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
