//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"feed-lab/contract"
	"feed-lab/domain/feed"
	errs "feed-lab/errors"

	"github.com/google/uuid"
)

type IMessageRepository interface {
	ListMessages(ctx context.Context) ([]feed.Message, error)
	ListMessagesByOwner(ctx context.Context, accountID int64) ([]feed.Message, error)
	GetMessage(ctx context.Context, messageID int64) (*feed.Message, error)
	CreateMessage(ctx context.Context, text string, ownerAccountID int64) (feed.Message, error)
	UpdateMessage(ctx context.Context, messageID int64, text string) (int, error)
	DeleteMessage(ctx context.Context, messageID int64) (int, error)
}

// MessageRepository talks to the remote message endpoints. Every method is a
// single HTTP exchange: no retries, no coalescing, no timeout beyond whatever
// the caller's context carries.
type MessageRepository struct {
	client  *http.Client
	baseURL string
	codec   contract.Codec
	log     *slog.Logger
}

func NewMessageRepository(client *http.Client, baseURL string, codec contract.Codec, log *slog.Logger) MessageRepository {
	return MessageRepository{client: client, baseURL: baseURL, codec: codec, log: log}
}

// ListMessages fetches every message known to the backend.
// A 2xx with an empty body is a valid empty feed, not an error.
func (r MessageRepository) ListMessages(ctx context.Context) ([]feed.Message, error) {
	body, status, err := r.exchange(ctx, http.MethodGet, "/messages", nil)
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, fmt.Errorf("%w: list messages returned %d", errs.ErrRemoteUnavailable, status)
	}
	return r.codec.DecodeMessages(body)
}

// ListMessagesByOwner fetches the messages posted by one account.
func (r MessageRepository) ListMessagesByOwner(ctx context.Context, accountID int64) ([]feed.Message, error) {
	path := fmt.Sprintf("/accounts/%d/messages", accountID)
	body, status, err := r.exchange(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, fmt.Errorf("%w: list messages for account %d returned %d", errs.ErrRemoteUnavailable, accountID, status)
	}
	return r.codec.DecodeMessages(body)
}

// GetMessage fetches a single message. The backend answers 200 with an empty
// body when the id matches nothing, which maps to (nil, nil) here.
func (r MessageRepository) GetMessage(ctx context.Context, messageID int64) (*feed.Message, error) {
	path := fmt.Sprintf("/messages/%d", messageID)
	body, status, err := r.exchange(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !is2xx(status) {
		return nil, fmt.Errorf("%w: get message %d returned %d", errs.ErrRemoteUnavailable, messageID, status)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	message, err := r.codec.DecodeMessage(body)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// CreateMessage posts a new message and returns the entity the server
// actually persisted (it may assign a timestamp or normalize the text).
func (r MessageRepository) CreateMessage(ctx context.Context, text string, ownerAccountID int64) (feed.Message, error) {
	payload, err := r.codec.EncodeCreate(text, ownerAccountID)
	if err != nil {
		return feed.Message{}, err
	}
	body, status, err := r.exchange(ctx, http.MethodPost, "/messages", payload)
	if err != nil {
		return feed.Message{}, err
	}
	switch {
	case status == http.StatusBadRequest:
		return feed.Message{}, fmt.Errorf("%w: message rejected by backend", errs.ErrInvalidInput)
	case status == http.StatusUnauthorized:
		return feed.Message{}, fmt.Errorf("%w: backend refused create", errs.ErrUnauthenticated)
	case !is2xx(status):
		return feed.Message{}, fmt.Errorf("%w: create message returned %d", errs.ErrRemoteUnavailable, status)
	}
	return r.codec.DecodeMessage(body)
}

// UpdateMessage patches the text of an existing message and returns the
// affected-row count. Zero means the id matched nothing and callers must
// treat that as recoverable; the backend reports bad text and unknown id
// both as 400, so neither is assumed here.
func (r MessageRepository) UpdateMessage(ctx context.Context, messageID int64, text string) (int, error) {
	payload, err := r.codec.EncodeUpdate(text)
	if err != nil {
		return 0, err
	}
	path := fmt.Sprintf("/messages/%d", messageID)
	body, status, err := r.exchange(ctx, http.MethodPatch, path, payload)
	if err != nil {
		return 0, err
	}
	switch {
	case status == http.StatusBadRequest:
		return 0, fmt.Errorf("%w: update rejected by backend", errs.ErrInvalidInput)
	case !is2xx(status):
		return 0, fmt.Errorf("%w: update message %d returned %d", errs.ErrRemoteUnavailable, messageID, status)
	}
	return contract.ParseAffectedCount(body)
}

// DeleteMessage removes a message and returns the affected-row count.
// Deleting an already-absent id yields zero, a valid idempotent outcome.
func (r MessageRepository) DeleteMessage(ctx context.Context, messageID int64) (int, error) {
	path := fmt.Sprintf("/messages/%d", messageID)
	body, status, err := r.exchange(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return 0, err
	}
	if !is2xx(status) {
		return 0, fmt.Errorf("%w: delete message %d returned %d", errs.ErrRemoteUnavailable, messageID, status)
	}
	return contract.ParseAffectedCount(body)
}

// exchange performs one HTTP round trip and returns the raw body and status.
// Transport-level failures become ErrRemoteUnavailable; status handling is
// left to each operation.
func (r MessageRepository) exchange(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errs.ErrRemoteUnavailable, err)
	}
	requestID := uuid.NewString()
	request.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := r.client.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errs.ErrRemoteUnavailable, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errs.ErrRemoteUnavailable, err)
	}
	r.log.Debug("remote exchange",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"request_id", requestID,
	)
	return body, response.StatusCode, nil
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
