package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// SlackWebhook posts messages to a Slack incoming webhook.
type SlackWebhook struct {
	http *resty.Client
	url  string
}

func NewSlackWebhook(webhookURL string) *SlackWebhook {
	return &SlackWebhook{
		http: resty.New().SetTimeout(10 * time.Second),
		url:  webhookURL,
	}
}

func (s *SlackWebhook) Notify(ctx context.Context, p Payload) error {
	text := p.Text
	if p.Title != "" {
		text = fmt.Sprintf("*%s*\n%s", p.Title, p.Text)
	}
	if p.UserID != "" {
		text = fmt.Sprintf("<@%s> %s", p.UserID, text)
	}

	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"text": text}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("slack webhook status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
