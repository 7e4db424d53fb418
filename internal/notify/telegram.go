package notify

import (
	"context"
	"fmt"

	"github.com/fd1az/options-arb/internal/httpclient"
)

// TelegramAPI is the Bot API base URL.
const TelegramAPI = "https://api.telegram.org"

// TelegramSender posts alerts through the Bot API sendMessage method.
type TelegramSender struct {
	token  string
	chatID string
	client httpclient.Client
}

// NewTelegramSender creates a TelegramSender. An empty baseURL uses TelegramAPI.
func NewTelegramSender(token, chatID, baseURL string) (*TelegramSender, error) {
	if baseURL == "" {
		baseURL = TelegramAPI
	}
	c, err := httpclient.NewInstrumentedClient(
		httpclient.WithBaseURL(baseURL),
		httpclient.WithProviderName("telegram"),
	)
	if err != nil {
		return nil, err
	}
	return &TelegramSender{token: token, chatID: chatID, client: c}, nil
}

func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	_, err := t.client.NewRequest(
		httpclient.WithResponseErrorHandler(httpclient.StatusErrorHandler("telegram")),
	).SetBody(map[string]string{
		"chat_id":    t.chatID,
		"text":       fmt.Sprintf("*%s*\n%s", title, message),
		"parse_mode": "Markdown",
	}).Post(ctx, "/bot"+t.token+"/sendMessage")
	return err
}

func (t *TelegramSender) Name() string {
	return "telegram"
}
