package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pricescout/pricescout/internal/metrics"
)

const (
	colorGreen  = 0x2ECC71 // drop of 20%+
	colorYellow = 0xF1C40F // drop of 10-19%
	colorOrange = 0xE67E22 // smaller drops
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Thumbnail   *discordThumbnail   `json:"thumbnail,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordThumbnail struct {
	URL string `json:"url"`
}

// SendPriceDrop sends a price-drop notification as a Discord embed.
func (d *DiscordNotifier) SendPriceDrop(ctx context.Context, drop PriceDropPayload) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(drop)},
	}
	if err := d.post(ctx, payload); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		return err
	}
	metrics.NotificationsSentTotal.Inc()
	return nil
}

func buildEmbed(drop PriceDropPayload) discordEmbed {
	embed := discordEmbed{
		Title: fmt.Sprintf("Price Drop: %s", drop.ProductTitle),
		URL:   drop.ProductURL,
		Color: dropColor(drop.DropPercent()),
		Fields: []discordEmbedField{
			{Name: "Was", Value: drop.HighAmount.String(), Inline: true},
			{Name: "Now", Value: drop.NewAmount.String(), Inline: true},
			{Name: "Drop", Value: fmt.Sprintf("%.1f%%", drop.DropPercent()), Inline: true},
		},
	}

	if drop.ImageURL != "" {
		embed.Thumbnail = &discordThumbnail{URL: drop.ImageURL}
	}

	return embed
}

func dropColor(percent float64) int {
	switch {
	case percent >= 20:
		return colorGreen
	case percent >= 10:
		return colorYellow
	default:
		return colorOrange
	}
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
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
		return fmt.Errorf("discord rate limited (429)")
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
