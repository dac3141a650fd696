package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	themeColorError = "eb090d"
	imageError      = "https://cdn-icons-png.flaticon.com/512/2797/2797263.png"
	summaryError    = "Internal Server Error"
)

// Fact is a name/value pair rendered inside a card section.
type Fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Section is one block of an MS-Teams-style message card.
type Section struct {
	ActivityTitle    string `json:"activityTitle"`
	ActivitySubtitle string `json:"activitySubtitle"`
	ActivityImage    string `json:"activityImage"`
	Facts            []Fact `json:"facts"`
}

// Card is the alert payload posted to the chat webhook.
type Card struct {
	Summary    string    `json:"summary"`
	ThemeColor string    `json:"themeColor"`
	Sections   []Section `json:"sections"`
}

// Notifier sends a formatted alert to an external channel.
type Notifier interface {
	Send(ctx context.Context, card Card) error
}

// WebhookNotifier posts cards to a chat webhook URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier for the given webhook URL.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send posts the card as JSON.
func (n *WebhookNotifier) Send(ctx context.Context, card Card) error {
	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to marshal alert card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post alert to webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// newErrorCard builds the alert payload for an error-level log event.
func newErrorCard(serviceName, serviceDomain, message string, now time.Time) Card {
	app := fmt.Sprintf("[%s](http://%s)", serviceName, serviceDomain)

	return Card{
		Summary:    fmt.Sprintf("%s with %s", summaryError, app),
		ThemeColor: themeColorError,
		Sections: []Section{
			{
				ActivityTitle:    app,
				ActivitySubtitle: summaryError,
				ActivityImage:    imageError,
				Facts: []Fact{
					{Name: "Date", Value: now.Format("2006-01-02 15:04:05 -07:00")},
					{Name: "Message", Value: message},
				},
			},
		},
	}
}
