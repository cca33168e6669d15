package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"feed-lab/auth"
	"feed-lab/contract"
	"feed-lab/domain/feed"
	errs "feed-lab/errors"
	"feed-lab/repositories"

	"github.com/samber/lo"
)

type IFeedService interface {
	Refresh(ctx context.Context) error
	ListFeed() []feed.Message
	MyPosts(ctx context.Context) ([]feed.Message, error)
	CreatePost(ctx context.Context, text string) error
	EditPost(ctx context.Context, messageID int64, text string) (bool, error)
	RemovePost(ctx context.Context, messageID int64) (bool, error)
}

// FeedService owns the authoritative in-memory snapshot of the feed and the
// rules for refreshing it. The displayed state is always a state the server
// actually returned: mutations never splice the snapshot optimistically,
// every success is followed by a full re-read.
type FeedService struct {
	messages repositories.IMessageRepository
	session  *auth.Session
	revision contract.Revision
	log      *slog.Logger

	mu              sync.Mutex
	snapshot        []feed.Message
	refreshInFlight bool
}

func NewFeedService(messages repositories.IMessageRepository, session *auth.Session, revision contract.Revision, log *slog.Logger) *FeedService {
	return &FeedService{
		messages: messages,
		session:  session,
		revision: revision,
		log:      log,
	}
}

// Refresh re-reads the whole feed and swaps the snapshot wholesale.
// Concurrent calls coalesce: while one fetch is outstanding, further calls
// return immediately without touching the network. On failure the previous
// snapshot stays in place and the error surfaces to the caller.
func (s *FeedService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.refreshInFlight {
		s.mu.Unlock()
		return nil
	}
	s.refreshInFlight = true
	s.mu.Unlock()

	messages, err := s.messages.ListMessages(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshInFlight = false
	if err != nil {
		return err
	}
	sortFeed(messages)
	s.snapshot = messages
	return nil
}

// sortFeed orders newest-first: by posted-at when every element carries one,
// else by message id. A partial set of timestamps falls back to ids so the
// two keys never interleave inconsistently.
func sortFeed(messages []feed.Message) {
	timestamped := lo.EveryBy(messages, func(m feed.Message) bool {
		return m.PostedAtMillis != nil
	})
	sort.SliceStable(messages, func(i, j int) bool {
		if timestamped {
			return *messages[i].PostedAtMillis > *messages[j].PostedAtMillis
		}
		return messages[i].MessageID > messages[j].MessageID
	})
}

// ListFeed returns a copy of the current snapshot, newest first.
func (s *FeedService) ListFeed() []feed.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]feed.Message, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// MyPosts fetches the messages owned by the current identity straight from
// the backend. Scoped listings are not part of the snapshot contract.
func (s *FeedService) MyPosts(ctx context.Context) ([]feed.Message, error) {
	identity := s.session.Current()
	if identity == nil {
		return nil, errs.ErrUnauthenticated
	}
	messages, err := s.messages.ListMessagesByOwner(ctx, identity.AccountID)
	if err != nil {
		return nil, err
	}
	sortFeed(messages)
	return messages, nil
}

// CreatePost stamps the new message with the current identity and posts it.
// The locally constructed message is never trusted: on success the feed is
// re-fetched so the snapshot carries whatever the server persisted.
func (s *FeedService) CreatePost(ctx context.Context, text string) error {
	// 1. Authentication gate before any network call.
	identity := s.session.Current()
	if identity == nil {
		return fmt.Errorf("%w: cannot post without logging in", errs.ErrUnauthenticated)
	}

	// 2. Local length check against the active contract's declared limit.
	if err := auth.ValidateMessageText(text, s.revision.MaxMessageLength()); err != nil {
		return err
	}

	// 3. Single create attempt, then a full authoritative re-read.
	created, err := s.messages.CreateMessage(ctx, text, identity.AccountID)
	if err != nil {
		return err
	}
	s.log.Debug("message created", "message_id", created.MessageID, "owner", created.OwnerAccountID)
	return s.Refresh(ctx)
}

// EditPost updates one of the caller's messages. The ownership check runs
// against the snapshot, which may be stale; the server's affected count is
// the real verdict. Returns false without error when the target no longer
// exists, and refreshes either way to reconcile.
func (s *FeedService) EditPost(ctx context.Context, messageID int64, text string) (bool, error) {
	if err := s.authorizeMutation(messageID); err != nil {
		return false, err
	}
	if err := auth.ValidateMessageText(text, s.revision.MaxMessageLength()); err != nil {
		return false, err
	}

	affected, err := s.messages.UpdateMessage(ctx, messageID, text)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		// Lost a race with a concurrent delete. Informational, not fatal.
		s.log.Info("edit target no longer exists", "message_id", messageID)
		return false, s.Refresh(ctx)
	}
	return true, s.Refresh(ctx)
}

// RemovePost deletes one of the caller's messages. Deleting an id that is
// already gone reports false with no error: idempotent delete-of-absent is
// a valid outcome.
func (s *FeedService) RemovePost(ctx context.Context, messageID int64) (bool, error) {
	if err := s.authorizeMutation(messageID); err != nil {
		return false, err
	}

	affected, err := s.messages.DeleteMessage(ctx, messageID)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		s.log.Info("delete target already absent", "message_id", messageID)
		return false, s.Refresh(ctx)
	}
	return true, s.Refresh(ctx)
}

// authorizeMutation applies the client-side ownership policy against the
// message as currently known in the snapshot. A target absent from the
// snapshot is let through: the check is advisory and the server's affected
// count settles what actually exists.
func (s *FeedService) authorizeMutation(messageID int64) error {
	identity := s.session.Current()
	if identity == nil {
		return fmt.Errorf("%w: cannot mutate without logging in", errs.ErrUnauthenticated)
	}

	s.mu.Lock()
	target, found := lo.Find(s.snapshot, func(m feed.Message) bool {
		return m.MessageID == messageID
	})
	s.mu.Unlock()

	if found && !auth.CanMutate(identity, target) {
		return fmt.Errorf("%w: message %d is not owned by account %d",
			errs.ErrUnauthenticated, messageID, identity.AccountID)
	}
	return nil
}
