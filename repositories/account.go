//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=../mocks/mock_account_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"feed-lab/contract"
	"feed-lab/domain/feed"
	errs "feed-lab/errors"
)

type IAccountRepository interface {
	Register(ctx context.Context, username, password string) (feed.Identity, error)
	Login(ctx context.Context, username, password string) (feed.Identity, error)
}

// AccountRepository performs register/login exchanges against the backend.
// It reuses the message repository's single-exchange transport.
type AccountRepository struct {
	exchanger MessageRepository
	codec     contract.Codec
}

func NewAccountRepository(client *http.Client, baseURL string, codec contract.Codec, log *slog.Logger) AccountRepository {
	return AccountRepository{
		exchanger: NewMessageRepository(client, baseURL, codec, log),
		codec:     codec,
	}
}

// Register creates a new account. A taken username surfaces as
// ErrUsernameTaken so callers can tell it apart from an outage.
func (r AccountRepository) Register(ctx context.Context, username, password string) (feed.Identity, error) {
	payload, err := r.codec.EncodeCredentials(username, password)
	if err != nil {
		return feed.Identity{}, err
	}
	body, status, err := r.exchanger.exchange(ctx, http.MethodPost, "/register", payload)
	if err != nil {
		return feed.Identity{}, err
	}
	switch {
	case status == http.StatusConflict:
		return feed.Identity{}, fmt.Errorf("%w: %s", errs.ErrUsernameTaken, username)
	case !is2xx(status):
		return feed.Identity{}, fmt.Errorf("%w: register returned %d", errs.ErrRemoteUnavailable, status)
	}
	return r.codec.DecodeAccount(body)
}

// Login authenticates existing credentials. The backend answers 401 for any
// bad pair; the generic ErrInvalidCredentials mirrors that deliberately.
func (r AccountRepository) Login(ctx context.Context, username, password string) (feed.Identity, error) {
	payload, err := r.codec.EncodeCredentials(username, password)
	if err != nil {
		return feed.Identity{}, err
	}
	body, status, err := r.exchanger.exchange(ctx, http.MethodPost, "/login", payload)
	if err != nil {
		return feed.Identity{}, err
	}
	switch {
	case status == http.StatusUnauthorized:
		return feed.Identity{}, errs.ErrInvalidCredentials
	case !is2xx(status):
		return feed.Identity{}, fmt.Errorf("%w: login returned %d", errs.ErrRemoteUnavailable, status)
	}
	return r.codec.DecodeAccount(body)
}
