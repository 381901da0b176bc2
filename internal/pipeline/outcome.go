package pipeline

import (
	"errors"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// ErrNoNewListings ends a run early when there is nothing to notify. It is
// not a failure.
var ErrNoNewListings = errors.New("no new listings")

// OutcomeKind classifies how a run ended.
type OutcomeKind int

// Outcome kinds.
const (
	OutcomeNotified OutcomeKind = iota
	OutcomeEmpty
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNotified:
		return "notified"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one (job, provider) execution. Listings holds
// the notified listings, including after a later stage failed.
type Outcome struct {
	Kind     OutcomeKind
	Listings []domain.Listing
	Err      error
}
