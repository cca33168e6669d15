package auth

import "feed-lab/domain/feed"

// CanMutate decides whether the given identity may edit or delete a message:
// true iff an identity is present and it owns the message. Advisory only —
// the backend re-checks and may still answer with zero affected rows.
func CanMutate(identity *feed.Identity, message feed.Message) bool {
	return identity != nil && identity.AccountID == message.OwnerAccountID
}
