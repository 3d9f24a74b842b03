// Package identity handles signup, login and token refresh.
package identity

import (
	"context"
	stderrors "errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hackcrew/service_layer/internal/app/auth"
	"github.com/hackcrew/service_layer/internal/app/core/service"
	"github.com/hackcrew/service_layer/internal/app/domain/account"
	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/logging"
)

const defaultRole = "user"

// Service authenticates accounts.
type Service struct {
	accounts storage.AccountStore
	tokens   *auth.Manager
	cost     int
	log      *logging.Logger
}

// Option configures the service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func New(accounts storage.AccountStore, tokens *auth.Manager, log *logging.Logger, opts ...Option) *Service {
	if log == nil {
		log = logging.NewDefault("identity")
	}
	s := &Service{accounts: accounts, tokens: tokens, cost: bcrypt.DefaultCost, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Descriptor() service.Descriptor {
	return service.Descriptor{Name: "identity", Domain: "account", Capabilities: []string{"signup", "login", "refresh"}}
}

// Signup creates an account and returns it. A registered email is a
// CONFLICT.
func (s *Service) Signup(ctx context.Context, email, password string) (account.Account, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return account.Account{}, err
	}
	if password == "" {
		return account.Account{}, errors.Required("password")
	}

	hash, err := auth.HashPassword(password, s.cost)
	if err != nil {
		return account.Account{}, errors.Internal("hash password", err)
	}
	acct, err := s.accounts.CreateAccount(ctx, account.Account{Email: email, PasswordHash: hash, Role: defaultRole})
	if err != nil {
		if stderrors.Is(err, storage.ErrConflict) {
			return account.Account{}, errors.Conflict("email already registered", err)
		}
		return account.Account{}, service.FromStore("account", err)
	}
	s.log.WithContext(ctx).WithField("user_id", acct.ID).Info("account created")
	return acct, nil
}

// Session is the result of a successful login.
type Session struct {
	Account account.Account
	Tokens  auth.TokenPair
}

// Login verifies credentials and issues a token pair. Unknown emails and
// wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	acct, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			s.log.LogSecurityEvent(ctx, "login_failed", map[string]interface{}{"reason": "unknown_email"})
			return Session{}, errors.InvalidCredentials()
		}
		return Session{}, service.FromStore("account", err)
	}
	if !auth.VerifyPassword(acct.PasswordHash, password) {
		s.log.LogSecurityEvent(ctx, "login_failed", map[string]interface{}{"reason": "password_mismatch", "user_id": acct.ID})
		return Session{}, errors.InvalidCredentials()
	}

	pair, err := s.tokens.Issue(acct.ID, acct.Email, roleOrDefault(acct.Role))
	if err != nil {
		return Session{}, err
	}
	s.log.WithContext(ctx).WithField("user_id", acct.ID).Info("login succeeded")
	return Session{Account: acct, Tokens: pair}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The account must
// still exist.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return auth.TokenPair{}, errors.Required("refresh_token")
	}
	claims, err := s.tokens.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return auth.TokenPair{}, err
	}
	acct, err := s.accounts.GetAccount(ctx, claims.UserID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return auth.TokenPair{}, errors.InvalidToken(err)
		}
		return auth.TokenPair{}, service.FromStore("account", err)
	}
	return s.tokens.Issue(acct.ID, acct.Email, roleOrDefault(acct.Role))
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.Required("email")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.Validation("email is not a valid address").WithDetails("field", "email")
	}
	return email, nil
}

func roleOrDefault(role string) string {
	if role == "" {
		return defaultRole
	}
	return role
}
