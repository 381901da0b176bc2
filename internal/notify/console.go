package notify

import (
	"context"
	"log/slog"
)

// ConsoleAdapter writes new listings to the log. Useful for local runs and
// as a fallback channel.
type ConsoleAdapter struct {
	log *slog.Logger
}

// NewConsoleAdapter creates a ConsoleAdapter.
func NewConsoleAdapter(log *slog.Logger) *ConsoleAdapter {
	if log == nil {
		log = slog.Default()
	}
	return &ConsoleAdapter{log: log}
}

// ID implements Adapter.
func (*ConsoleAdapter) ID() string {
	return "console"
}

// Send implements Adapter.
func (c *ConsoleAdapter) Send(_ context.Context, msg Message) error {
	for i := range msg.NewListings {
		l := &msg.NewListings[i]
		c.log.Info("new listing",
			"job", msg.JobKey,
			"provider", msg.ServiceName,
			"listing", l.ID,
			"title", l.Title,
			"price", l.Price,
			"address", l.Address,
			"link", l.Link,
		)
	}
	return nil
}
