// Package feed holds the canonical in-memory shapes for accounts and
// messages, independent of whichever wire revision the backend speaks.
package feed

// Identity is an authenticated account as returned by register/login.
// Immutable once issued; the client never mutates accounts.
type Identity struct {
	AccountID int64
	Username  string
}

// Message is a short text post owned by exactly one account.
type Message struct {
	MessageID      int64
	Text           string
	OwnerAccountID int64
	// PostedAtMillis is the server-assigned creation time in epoch
	// milliseconds. Nil when the backend revision does not report it.
	PostedAtMillis *int64
}
