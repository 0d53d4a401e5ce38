package alerts

import (
	"context"
	"fmt"

	"SmartFlow/internal/domain/service"
	xhttp "SmartFlow/pkg/http"
)

const telegramBaseURL = "https://api.telegram.org/bot"

// TelegramChannel delivers alerts through a Telegram bot.
type TelegramChannel struct {
	http     *xhttp.Client
	botToken string
	chatID   string
}

func NewTelegramChannel(botToken, chatID string) service.AlertChannel {
	return &TelegramChannel{
		http:     xhttp.NewClient(),
		botToken: botToken,
		chatID:   chatID,
	}
}

func (t *TelegramChannel) Name() string { return "telegram" }

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *TelegramChannel) Send(ctx context.Context, title, body string) error {
	if t.botToken == "" || t.chatID == "" {
		return fmt.Errorf("telegram not configured")
	}

	var resp telegramResponse
	err := t.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s%s/sendMessage", telegramBaseURL, t.botToken),
		Body: map[string]interface{}{
			"chat_id":                  t.chatID,
			"text":                     title + "\n\n" + body,
			"disable_web_page_preview": true,
		},
		Headers: map[string]string{"Content-Type": "application/json"},
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram api: %s", resp.Description)
	}
	return nil
}
