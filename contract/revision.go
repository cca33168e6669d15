// Package contract normalizes the two observed backend schema revisions
// into the canonical feed shapes, and encodes requests for the active one.
// Decoding always tolerates both key conventions; encoding never does.
package contract

import (
	"fmt"

	errs "feed-lab/errors"
)

// Revision identifies a backend schema revision. The two revisions disagree
// on entity key names and on the maximum message length.
type Revision string

const (
	// RevisionLegacy uses id/accountId keys and accepts up to 500 characters.
	RevisionLegacy Revision = "legacy"
	// RevisionCurrent uses messageId/postedBy keys, reports timePostedEpoch
	// and caps messages at 255 characters.
	RevisionCurrent Revision = "current"
)

func ParseRevision(s string) (Revision, error) {
	switch Revision(s) {
	case RevisionLegacy:
		return RevisionLegacy, nil
	case RevisionCurrent:
		return RevisionCurrent, nil
	}
	return "", fmt.Errorf("%w: unknown contract revision %q", errs.ErrInvalidInput, s)
}

// MaxMessageLength returns the text limit declared by this revision.
func (r Revision) MaxMessageLength() int {
	if r == RevisionLegacy {
		return 500
	}
	return 255
}
