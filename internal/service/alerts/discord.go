package alerts

import (
	"context"
	"fmt"
	"time"

	"SmartFlow/internal/domain/service"
	xhttp "SmartFlow/pkg/http"
)

const (
	discordColorBuy  = 0x00FF00
	discordColorSell = 0xFF0000
)

// DiscordChannel delivers alerts through a Discord webhook embed.
type DiscordChannel struct {
	http       *xhttp.Client
	webhookURL string
}

func NewDiscordChannel(webhookURL string) service.AlertChannel {
	return &DiscordChannel{
		http:       xhttp.NewClient(),
		webhookURL: webhookURL,
	}
}

func (d *DiscordChannel) Name() string { return "discord" }

func (d *DiscordChannel) Send(ctx context.Context, title, body string) error {
	if d.webhookURL == "" {
		return fmt.Errorf("discord not configured")
	}

	color := discordColorBuy
	if len(title) >= 4 && title[:4] == "SELL" {
		color = discordColorSell
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{{
			"title":       title,
			"description": body,
			"color":       color,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"footer":      map[string]string{"text": "SmartFlow"},
		}},
	}

	err := d.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     d.webhookURL,
		Body:    payload,
		Headers: map[string]string{"Content-Type": "application/json"},
	}, nil)
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}
