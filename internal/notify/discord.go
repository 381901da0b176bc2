package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// discordMaxEmbeds is Discord's per-message embed limit.
const discordMaxEmbeds = 10

const (
	colorBlue = 0x3498DB
	colorGrey = 0x95A5A6
)

// DiscordAdapter posts listings to a Discord webhook as embeds.
type DiscordAdapter struct {
	webhookURL string
	client     *http.Client
}

// DiscordOption configures a DiscordAdapter.
type DiscordOption func(*DiscordAdapter)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordAdapter) {
		d.client = c
	}
}

// NewDiscordAdapter creates a DiscordAdapter. webhookURL is the default,
// overridable per job with the "webhook_url" config field.
func NewDiscordAdapter(webhookURL string, opts ...DiscordOption) *DiscordAdapter {
	d := &DiscordAdapter{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ID implements Adapter.
func (*DiscordAdapter) ID() string {
	return "discord"
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Thumbnail   *discordThumbnail   `json:"thumbnail,omitempty"`
	Footer      *discordFooter      `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordThumbnail struct {
	URL string `json:"url"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// Send implements Adapter. Listings are split across as many webhook
// messages as the embed limit requires.
func (d *DiscordAdapter) Send(ctx context.Context, msg Message) error {
	url := msg.Config.Fields["webhook_url"]
	if url == "" {
		url = d.webhookURL
	}
	if url == "" {
		return errors.New("discord webhook url not configured")
	}

	for start := 0; start < len(msg.NewListings); start += discordMaxEmbeds {
		end := min(start+discordMaxEmbeds, len(msg.NewListings))

		embeds := make([]discordEmbed, 0, end-start)
		for i := start; i < end; i++ {
			embeds = append(embeds, buildEmbed(&msg.NewListings[i], msg.ServiceName))
		}

		payload := discordWebhookPayload{Embeds: embeds}
		if start == 0 {
			payload.Content = fmt.Sprintf("%d new listing(s) for job %s on %s",
				len(msg.NewListings), msg.JobKey, msg.ServiceName)
		}
		if err := d.post(ctx, url, payload); err != nil {
			return err
		}
	}
	return nil
}

func buildEmbed(l *domain.Listing, provider string) discordEmbed {
	embed := discordEmbed{
		Title:       truncate(l.Title, 256),
		URL:         l.Link,
		Color:       colorBlue,
		Description: truncate(l.Description, 300),
		Footer:      &discordFooter{Text: provider},
	}

	for _, f := range []struct{ name, value string }{
		{"Price", l.Price},
		{"Size", l.Size},
		{"Address", l.Address},
	} {
		if f.value != "" {
			embed.Fields = append(embed.Fields, discordEmbedField{Name: f.name, Value: f.value, Inline: true})
		}
	}
	if l.DistanceToDestination != nil {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:   "Distance",
			Value:  fmt.Sprintf("%.1f km", *l.DistanceToDestination/1000),
			Inline: true,
		})
	}
	if len(embed.Fields) == 0 {
		embed.Color = colorGrey
	}

	if l.Image != "" {
		embed.Thumbnail = &discordThumbnail{URL: l.Image}
	}
	return embed
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (d *DiscordAdapter) post(ctx context.Context, url string, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.New("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
