package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/relieflabs/go-drms/internal/models"
	"github.com/relieflabs/go-drms/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserInactive       = errors.New("user account is deactivated")
)

// Service issues and validates opaque session tokens, accepted either as a
// bearer token or a session cookie. Tokens are persisted server-side so
// logout revokes them immediately.
type Service struct {
	users      repository.UserRepository
	sessionTTL time.Duration
	now        func() time.Time
}

func NewService(users repository.UserRepository, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login verifies credentials and issues a new session.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, *models.Session, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if !u.Active {
		return nil, nil, ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	now := s.now()
	sess := &models.Session{
		Token:     uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.users.AddSession(ctx, sess); err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// Authenticate resolves a token to its user, rejecting expired sessions and
// deactivated accounts.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	sess, err := s.users.GetSession(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, ErrSessionExpired
	}

	u, err := s.users.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrUserInactive
	}
	return u, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.users.DeleteSession(ctx, token)
}

// PurgeExpired removes expired sessions; called periodically from main.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.users.DeleteExpiredSessions(ctx, s.now())
}

// Bootstrap creates the initial admin account when the users table is empty.
func (s *Service) Bootstrap(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.users.AddUser(ctx, &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Roles:        []models.Role{models.RoleAdmin},
		Active:       true,
		CreatedAt:    s.now(),
	})
}
