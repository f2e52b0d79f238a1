package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dwikikusuma/shoping-live/internal/auth/domain"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Service struct {
	repo   UserRepo
	tokens Tokens
	cost   int
}

// NewService uses bcrypt.DefaultCost when cost is 0.
func NewService(repo UserRepo, tokens Tokens, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, tokens: tokens, cost: cost}
}

// Session is a signed-in user and the token that proves it.
type Session struct {
	User    domain.Profile `json:"user"`
	Token   string         `json:"token"`
	Expires time.Time      `json:"expires"`
}

func (s *Service) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return Session{}, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return Session{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, domain.User{Name: name, Email: email, PasswordHash: string(hash)})
	if err != nil {
		return Session{}, err
	}
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

// Authenticate resolves a token to a user id. It only checks the signature and
// expiry, so it is cheap enough to run on every cart operation.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return userID, nil
}

// CurrentUser loads the profile behind a token. Deleted users are
// unauthenticated even with a valid token.
func (s *Service) CurrentUser(ctx context.Context, token string) (domain.Profile, error) {
	userID, err := s.Authenticate(ctx, token)
	if err != nil {
		return domain.Profile{}, err
	}
	u, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return domain.Profile{}, ErrUnauthenticated
	}
	if err != nil {
		return domain.Profile{}, err
	}
	return u.Profile(), nil
}

func (s *Service) issue(u domain.User) (Session, error) {
	tok, exp, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{User: u.Profile(), Token: tok, Expires: exp}, nil
}
