package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"feed-lab/auth"
	"feed-lab/contract"
	"feed-lab/domain/feed"
	errs "feed-lab/errors"
	"feed-lab/mocks"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newFeedFixture(t *testing.T) (*FeedService, *mocks.MockIMessageRepository, *auth.Session) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockIMessageRepository(ctrl)
	session := auth.NewSession()
	service := NewFeedService(repo, session, contract.RevisionCurrent, slog.Default())
	return service, repo, session
}

func message(id, owner int64, text string, postedAt *int64) feed.Message {
	return feed.Message{MessageID: id, OwnerAccountID: owner, Text: text, PostedAtMillis: postedAt}
}

func TestFeedService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("should sort by timestamp descending when all messages carry one", func(t *testing.T) {
		req := require.New(t)
		service, repo, _ := newFeedFixture(t)

		repo.EXPECT().ListMessages(ctx).Return([]feed.Message{
			message(1, 9, "a", lo.ToPtr(int64(100))),
			message(2, 9, "b", lo.ToPtr(int64(300))),
			message(3, 9, "c", lo.ToPtr(int64(200))),
		}, nil)

		req.NoError(service.Refresh(ctx))

		stamps := lo.Map(service.ListFeed(), func(m feed.Message, _ int) int64 {
			return *m.PostedAtMillis
		})
		req.Equal([]int64{300, 200, 100}, stamps)
	})

	t.Run("should fall back to message id descending without timestamps", func(t *testing.T) {
		req := require.New(t)
		service, repo, _ := newFeedFixture(t)

		repo.EXPECT().ListMessages(ctx).Return([]feed.Message{
			message(1, 9, "a", nil),
			message(2, 9, "b", nil),
			message(3, 9, "c", nil),
		}, nil)

		req.NoError(service.Refresh(ctx))

		ids := lo.Map(service.ListFeed(), func(m feed.Message, _ int) int64 {
			return m.MessageID
		})
		req.Equal([]int64{3, 2, 1}, ids)
	})

	t.Run("should keep previous snapshot when the fetch fails", func(t *testing.T) {
		req := require.New(t)
		service, repo, _ := newFeedFixture(t)

		repo.EXPECT().ListMessages(ctx).Return([]feed.Message{message(1, 9, "a", nil)}, nil)
		req.NoError(service.Refresh(ctx))

		repo.EXPECT().ListMessages(ctx).Return(nil, fmt.Errorf("%w: 502", errs.ErrRemoteUnavailable))
		err := service.Refresh(ctx)
		req.ErrorIs(err, errs.ErrRemoteUnavailable)
		req.Len(service.ListFeed(), 1)

		// The in-flight flag must be cleared on the failure path too.
		repo.EXPECT().ListMessages(ctx).Return(nil, nil)
		req.NoError(service.Refresh(ctx))
	})

	t.Run("should coalesce concurrent refreshes into one fetch", func(t *testing.T) {
		req := require.New(t)
		service, repo, _ := newFeedFixture(t)

		fetching := make(chan struct{})
		release := make(chan struct{})
		repo.EXPECT().ListMessages(ctx).DoAndReturn(func(context.Context) ([]feed.Message, error) {
			close(fetching)
			<-release
			return []feed.Message{message(1, 9, "a", nil)}, nil
		}).Times(1)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			req.NoError(service.Refresh(ctx))
		}()

		<-fetching
		// Second call while the first is outstanding: a no-op, no second fetch.
		req.NoError(service.Refresh(ctx))
		close(release)
		wg.Wait()

		req.Len(service.ListFeed(), 1)
	})
}

func TestFeedService_CreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse to post without an identity", func(t *testing.T) {
		req := require.New(t)
		service, repo, _ := newFeedFixture(t)

		repo.EXPECT().CreateMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		err := service.CreatePost(ctx, "hello")
		req.ErrorIs(err, errs.ErrUnauthenticated)
	})

	t.Run("should refuse text over the active contract limit before any call", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		repo.EXPECT().CreateMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		err := service.CreatePost(ctx, strings.Repeat("a", 256))
		req.ErrorIs(err, errs.ErrInvalidInput)
	})

	t.Run("should create then re-fetch, never splice locally", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		// The snapshot must only ever hold what the server returned: the
		// re-fetch carries a server-normalized text and an assigned stamp.
		created := message(7, 9, "hello", nil)
		gomock.InOrder(
			repo.EXPECT().CreateMessage(ctx, "hello", int64(9)).Return(created, nil),
			repo.EXPECT().ListMessages(ctx).Return([]feed.Message{
				message(7, 9, "hello", lo.ToPtr(int64(400))),
				message(3, 8, "older", lo.ToPtr(int64(300))),
			}, nil),
		)

		req.NoError(service.CreatePost(ctx, "hello"))

		snapshot := service.ListFeed()
		req.Len(snapshot, 2)
		mine := lo.Filter(snapshot, func(m feed.Message, _ int) bool {
			return m.Text == "hello"
		})
		req.Len(mine, 1)
		req.Equal(int64(9), mine[0].OwnerAccountID)
	})

	t.Run("should surface create failures without touching the snapshot", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		repo.EXPECT().CreateMessage(ctx, "hello", int64(9)).
			Return(feed.Message{}, fmt.Errorf("%w: 503", errs.ErrRemoteUnavailable))

		err := service.CreatePost(ctx, "hello")
		req.ErrorIs(err, errs.ErrRemoteUnavailable)
		req.Empty(service.ListFeed())
	})
}

func TestFeedService_EditPost(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse edits on someone else's message without any call", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		repo.EXPECT().ListMessages(ctx).Return([]feed.Message{message(5, 8, "not mine", nil)}, nil)
		req.NoError(service.Refresh(ctx))

		repo.EXPECT().UpdateMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := service.EditPost(ctx, 5, "hijack")
		req.ErrorIs(err, errs.ErrUnauthenticated)
	})

	t.Run("should apply the edit and re-fetch", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		repo.EXPECT().ListMessages(ctx).Return([]feed.Message{message(5, 9, "mine", nil)}, nil)
		req.NoError(service.Refresh(ctx))

		gomock.InOrder(
			repo.EXPECT().UpdateMessage(ctx, int64(5), "edited").Return(1, nil),
			repo.EXPECT().ListMessages(ctx).Return([]feed.Message{message(5, 9, "edited", nil)}, nil),
		)

		applied, err := service.EditPost(ctx, 5, "edited")
		req.NoError(err)
		req.True(applied)
		req.Equal("edited", service.ListFeed()[0].Text)
	})

	t.Run("should let the server decide for an id the snapshot never saw", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		// The advisory ownership check cannot run on an unknown target;
		// the affected count is the verdict.
		gomock.InOrder(
			repo.EXPECT().UpdateMessage(ctx, int64(4040), "edited").Return(0, nil),
			repo.EXPECT().ListMessages(ctx).Return(nil, nil),
		)

		applied, err := service.EditPost(ctx, 4040, "edited")
		req.NoError(err)
		req.False(applied)
	})

	t.Run("should treat zero affected rows as target gone, then reconcile", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		// Stale snapshot still shows the message; a concurrent delete won.
		repo.EXPECT().ListMessages(ctx).Return([]feed.Message{message(5, 9, "mine", nil)}, nil)
		req.NoError(service.Refresh(ctx))

		gomock.InOrder(
			repo.EXPECT().UpdateMessage(ctx, int64(5), "edited").Return(0, nil),
			repo.EXPECT().ListMessages(ctx).Return(nil, nil),
		)

		applied, err := service.EditPost(ctx, 5, "edited")
		req.NoError(err)
		req.False(applied)
		req.Empty(service.ListFeed())
	})
}

func TestFeedService_RemovePost(t *testing.T) {
	ctx := context.Background()

	t.Run("should delete and re-fetch", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		repo.EXPECT().ListMessages(ctx).Return([]feed.Message{message(5, 9, "mine", nil)}, nil)
		req.NoError(service.Refresh(ctx))

		gomock.InOrder(
			repo.EXPECT().DeleteMessage(ctx, int64(5)).Return(1, nil),
			repo.EXPECT().ListMessages(ctx).Return(nil, nil),
		)

		applied, err := service.RemovePost(ctx, 5)
		req.NoError(err)
		req.True(applied)
		req.Empty(service.ListFeed())
	})

	t.Run("should report a second delete as informational, not an error", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		repo.EXPECT().ListMessages(ctx).Return([]feed.Message{message(5, 9, "mine", nil)}, nil)
		req.NoError(service.Refresh(ctx))

		gomock.InOrder(
			repo.EXPECT().DeleteMessage(ctx, int64(5)).Return(1, nil),
			repo.EXPECT().ListMessages(ctx).Return(nil, nil),
			repo.EXPECT().DeleteMessage(ctx, int64(5)).Return(0, nil),
			repo.EXPECT().ListMessages(ctx).Return(nil, nil),
		)

		applied, err := service.RemovePost(ctx, 5)
		req.NoError(err)
		req.True(applied)

		// Second delete of the same id: already absent.
		applied, err = service.RemovePost(ctx, 5)
		req.NoError(err)
		req.False(applied)
		req.NotContains(lo.Map(service.ListFeed(), func(m feed.Message, _ int) int64 {
			return m.MessageID
		}), int64(5))
	})

	t.Run("should refuse to delete without an identity", func(t *testing.T) {
		req := require.New(t)
		service, repo, _ := newFeedFixture(t)

		repo.EXPECT().DeleteMessage(gomock.Any(), gomock.Any()).Times(0)

		_, err := service.RemovePost(ctx, 5)
		req.ErrorIs(err, errs.ErrUnauthenticated)
	})
}

func TestFeedService_MyPosts(t *testing.T) {
	ctx := context.Background()

	t.Run("should scope the listing to the current account", func(t *testing.T) {
		req := require.New(t)
		service, repo, session := newFeedFixture(t)
		session.Login(feed.Identity{AccountID: 9, Username: "alice"})

		repo.EXPECT().ListMessagesByOwner(ctx, int64(9)).Return([]feed.Message{
			message(1, 9, "a", nil),
			message(2, 9, "b", nil),
		}, nil)

		messages, err := service.MyPosts(ctx)
		req.NoError(err)
		req.Equal(int64(2), messages[0].MessageID)
	})

	t.Run("should refuse without an identity", func(t *testing.T) {
		req := require.New(t)
		service, _, _ := newFeedFixture(t)

		_, err := service.MyPosts(ctx)
		req.ErrorIs(err, errs.ErrUnauthenticated)
	})
}
