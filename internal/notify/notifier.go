// Package notify delivers batches of new listings to the notification
// adapters a job is configured with.
package notify

import (
	"context"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// Message is one batch of new listings for one adapter.
type Message struct {
	// ServiceName is the provider the listings came from.
	ServiceName string
	NewListings []domain.Listing
	Config      domain.NotificationConfig
	JobKey      string
}

// Adapter delivers messages to one notification channel.
type Adapter interface {
	ID() string
	Send(ctx context.Context, msg Message) error
}
