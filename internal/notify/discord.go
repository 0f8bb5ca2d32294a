package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DiscordSender posts marketplace notifications to a Discord webhook.
type DiscordSender struct {
	url  string
	http *http.Client
}

// NewDiscordSender builds a sender for the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		url:  webhookURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// discordMessage is the minimal webhook payload: a single content string.
type discordMessage struct {
	Content string `json:"content"`
}

// Send posts the title in bold markdown followed by the message body.
func (d *DiscordSender) Send(ctx context.Context, title, message string) error {
	payload, err := json.Marshal(discordMessage{Content: "**" + title + "**\n" + message})
	if err != nil {
		return fmt.Errorf("discord: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("discord: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("discord: post webhook: %w", err)
	}
	defer resp.Body.Close()

	// Webhooks answer 204 on success; accept any 2xx as delivered.
	if resp.StatusCode/100 != 2 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// Name identifies this sender in courier logs.
func (d *DiscordSender) Name() string {
	return "discord"
}
