package services

import (
	"context"
	"log/slog"

	"feed-lab/auth"
	"feed-lab/domain/feed"
	"feed-lab/repositories"
)

type IAuthService interface {
	Register(ctx context.Context, username, password string) (feed.Identity, error)
	Login(ctx context.Context, username, password string) (feed.Identity, error)
	Logout()
	CurrentIdentity() *feed.Identity
}

// AuthService drives register/login against the backend and keeps the
// resulting identity in the session slot.
type AuthService struct {
	accounts repositories.IAccountRepository
	session  *auth.Session
	log      *slog.Logger
}

func NewAuthService(accounts repositories.IAccountRepository, session *auth.Session, log *slog.Logger) *AuthService {
	return &AuthService{accounts: accounts, session: session, log: log}
}

// Register creates the account and logs it straight in, the way the
// register form behaves.
func (s *AuthService) Register(ctx context.Context, username, password string) (feed.Identity, error) {
	// 1. Validate before spending a network round trip.
	req := auth.CredentialsRequest{Username: username, Password: password}
	if err := auth.ValidateRegister(req); err != nil {
		return feed.Identity{}, err
	}

	// 2. Create the account remotely.
	identity, err := s.accounts.Register(ctx, username, password)
	if err != nil {
		return feed.Identity{}, err
	}

	// 3. Install the fresh identity in the session.
	s.session.Login(identity)
	s.log.Info("registered", "account_id", identity.AccountID, "username", identity.Username)
	return identity, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (feed.Identity, error) {
	req := auth.CredentialsRequest{Username: username, Password: password}
	if err := auth.ValidateLogin(req); err != nil {
		return feed.Identity{}, err
	}

	identity, err := s.accounts.Login(ctx, username, password)
	if err != nil {
		return feed.Identity{}, err
	}

	// Overwrites any previous identity: last login wins.
	s.session.Login(identity)
	s.log.Info("logged in", "account_id", identity.AccountID, "username", identity.Username)
	return identity, nil
}

func (s *AuthService) Logout() {
	s.session.Logout()
}

func (s *AuthService) CurrentIdentity() *feed.Identity {
	return s.session.Current()
}
