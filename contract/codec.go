package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"feed-lab/domain/feed"
	errs "feed-lab/errors"
)

// Codec maps wire payloads to canonical entities and back. Decoding accepts
// either revision's keys so a mixed fleet never breaks the client; the bound
// revision only governs what the codec emits.
type Codec struct {
	revision Revision
}

func NewCodec(revision Revision) Codec {
	return Codec{revision: revision}
}

func (c Codec) Revision() Revision {
	return c.revision
}

// wireMessage carries every key either revision may use. Pointers distinguish
// "absent" from zero, which is what keeps a missing id from decoding as 0.
type wireMessage struct {
	ID              *int64 `json:"id,omitempty"`
	MessageID       *int64 `json:"messageId,omitempty"`
	AccountID       *int64 `json:"accountId,omitempty"`
	PostedBy        *int64 `json:"postedBy,omitempty"`
	MessageText     string `json:"messageText"`
	TimePostedEpoch *int64 `json:"timePostedEpoch,omitempty"`
}

type wireAccount struct {
	ID        *int64 `json:"id"`
	AccountID *int64 `json:"accountId"`
	Username  string `json:"username"`
}

type wireCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DecodeMessage normalizes a single message payload.
// A payload carrying neither identity key or neither owner key is rejected
// with ErrMalformedEntity rather than defaulted to id 0.
func (c Codec) DecodeMessage(data []byte) (feed.Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return feed.Message{}, fmt.Errorf("%w: %v", errs.ErrMalformedEntity, err)
	}
	return c.fromWire(w)
}

// DecodeMessages normalizes an array payload. An empty body decodes to an
// empty sequence, matching a backend that answers 200 with no content.
func (c Codec) DecodeMessages(data []byte) ([]feed.Message, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []feed.Message{}, nil
	}
	var ws []wireMessage
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedEntity, err)
	}
	messages := make([]feed.Message, 0, len(ws))
	for _, w := range ws {
		m, err := c.fromWire(w)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (c Codec) fromWire(w wireMessage) (feed.Message, error) {
	id := coalesce(w.MessageID, w.ID)
	owner := coalesce(w.PostedBy, w.AccountID)
	if id == nil {
		return feed.Message{}, fmt.Errorf("%w: message identity key missing", errs.ErrMalformedEntity)
	}
	if owner == nil {
		return feed.Message{}, fmt.Errorf("%w: message owner key missing", errs.ErrMalformedEntity)
	}
	return feed.Message{
		MessageID:      *id,
		Text:           w.MessageText,
		OwnerAccountID: *owner,
		PostedAtMillis: w.TimePostedEpoch,
	}, nil
}

// DecodeAccount normalizes a register/login response body.
func (c Codec) DecodeAccount(data []byte) (feed.Identity, error) {
	var w wireAccount
	if err := json.Unmarshal(data, &w); err != nil {
		return feed.Identity{}, fmt.Errorf("%w: %v", errs.ErrMalformedEntity, err)
	}
	id := coalesce(w.AccountID, w.ID)
	if id == nil {
		return feed.Identity{}, fmt.Errorf("%w: account identity key missing", errs.ErrMalformedEntity)
	}
	return feed.Identity{AccountID: *id, Username: w.Username}, nil
}

// EncodeCreate builds the create-message body in the bound revision's keys.
func (c Codec) EncodeCreate(text string, ownerAccountID int64) ([]byte, error) {
	w := wireMessage{MessageText: text}
	if c.revision == RevisionLegacy {
		w.AccountID = &ownerAccountID
	} else {
		w.PostedBy = &ownerAccountID
	}
	return json.Marshal(w)
}

// EncodeUpdate builds the update-message body. Both revisions agree here.
func (c Codec) EncodeUpdate(text string) ([]byte, error) {
	return json.Marshal(wireMessage{MessageText: text})
}

func (c Codec) EncodeCredentials(username, password string) ([]byte, error) {
	return json.Marshal(wireCredentials{Username: username, Password: password})
}

// ParseAffectedCount reads a mutation response. The legacy backend answers
// with a bare JSON integer, the current one with plain text; an empty body
// counts as zero rows affected.
func ParseAffectedCount(body []byte) (int, error) {
	trimmed := string(bytes.TrimSpace(body))
	if trimmed == "" {
		return 0, nil
	}
	count, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: affected count %q", errs.ErrMalformedEntity, trimmed)
	}
	return count, nil
}

func coalesce(values ...*int64) *int64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
