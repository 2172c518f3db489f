package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatClient talks to any OpenAI-compatible API for chat, vision
// and embedding calls.
type OpenAICompatClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	VisionModel string
	EmbedModel  string
}

const defaultTimeout = 10 * time.Second

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *imageURLBlock `json:"image_url,omitempty"`
}

type imageURLBlock struct {
	URL string `json:"url"`
}

func (c OpenAICompatClient) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	return c.chat(ctx, c.Model, []chatMessage{{Role: "user", Content: prompt}}, opts)
}

func (c OpenAICompatClient) CompleteWithImage(ctx context.Context, prompt string, image ImageRef, opts CompleteOptions) (string, error) {
	url := image.URL
	if url == "" && len(image.Data) > 0 {
		contentType := image.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		url = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
	}
	if url == "" {
		return "", fmt.Errorf("image reference is empty")
	}

	model := c.VisionModel
	if model == "" {
		model = c.Model
	}
	content := []contentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &imageURLBlock{URL: url}},
	}
	return c.chat(ctx, model, []chatMessage{{Role: "user", Content: content}}, opts)
}

func (c OpenAICompatClient) chat(ctx context.Context, model string, messages []chatMessage, opts CompleteOptions) (string, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", fmt.Errorf("AI_BASE_URL is not set")
	}
	if strings.TrimSpace(model) == "" {
		return "", fmt.Errorf("AI_MODEL is not set")
	}

	payload := struct {
		Model       string        `json:"model"`
		Temperature float64       `json:"temperature,omitempty"`
		MaxTokens   int           `json:"max_tokens,omitempty"`
		Messages    []chatMessage `json:"messages"`
	}{
		Model:       model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Messages:    messages,
	}

	b, _ := json.Marshal(payload)
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.do(ctx, req, opts.Timeout)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return "", fmt.Errorf("ai http error: %s: %v", resp.Status, errBody)
	}

	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("empty ai response")
	}
	return res.Choices[0].Message.Content, nil
}

func (c OpenAICompatClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, fmt.Errorf("AI_BASE_URL is not set")
	}
	model := c.EmbedModel
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("AI_EMBED_MODEL is not set")
	}

	payload := struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}{Model: model, Input: text}

	b, _ := json.Marshal(payload)
	url := strings.TrimRight(c.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.do(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return nil, fmt.Errorf("embedding http error: %s: %v", resp.Status, errBody)
	}

	var res struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	if len(res.Data) == 0 || len(res.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return res.Data[0].Embedding, nil
}

func (c OpenAICompatClient) do(ctx context.Context, req *http.Request, timeout time.Duration) (*http.Response, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("ai request timed out")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("ai request timed out")
		}
		return nil, fmt.Errorf("ai request failed")
	}
	return resp, nil
}
