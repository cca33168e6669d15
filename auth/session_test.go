package auth

import (
	"testing"

	"feed-lab/domain/feed"

	"github.com/stretchr/testify/require"
)

func Test_Session_Starts_Empty(t *testing.T) {
	require.Nil(t, NewSession().Current())
}

func Test_Session_Login_Overwrites_Silently(t *testing.T) {
	req := require.New(t)
	session := NewSession()

	session.Login(feed.Identity{AccountID: 1, Username: "alice"})
	session.Login(feed.Identity{AccountID: 2, Username: "bob"})

	current := session.Current()
	req.NotNil(current)
	req.Equal(int64(2), current.AccountID)
	req.Equal("bob", current.Username)
}

func Test_Session_Logout_Clears_Slot(t *testing.T) {
	req := require.New(t)
	session := NewSession()

	session.Login(feed.Identity{AccountID: 1, Username: "alice"})
	session.Logout()
	req.Nil(session.Current())

	// Logging out twice is harmless.
	session.Logout()
	req.Nil(session.Current())
}

func Test_Session_Current_Returns_A_Copy(t *testing.T) {
	req := require.New(t)
	session := NewSession()
	session.Login(feed.Identity{AccountID: 1, Username: "alice"})

	held := session.Current()
	held.AccountID = 99

	req.Equal(int64(1), session.Current().AccountID)
}
