package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APISender delivers mail through a hosted notification API with a JSON
// send endpoint.
type APISender struct {
	BaseURL string
	APIKey  string
	From    string
	Client  *http.Client
}

type apiPayload struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

func (a APISender) Send(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient address is empty")
	}
	if strings.TrimSpace(a.BaseURL) == "" {
		return fmt.Errorf("MAIL_API_URL is not set")
	}
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	payload := apiPayload{
		From:     a.From,
		To:       msg.To,
		Subject:  msg.Subject,
		HTML:     msg.HTMLBody,
		Text:     msg.TextFallback,
		ImageURL: msg.InlineImageURL,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(a.BaseURL, "/")+"/send", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(a.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+a.APIKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("mail api send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return fmt.Errorf("mail api error: %s: %v", resp.Status, errBody)
	}
	return nil
}
