package ai

import (
	"context"
	"strings"

	"github.com/bms-ged/backend/internal/utils"
)

// MockClient keeps the submission flow working without a configured AI
// backend. Responses are deterministic per prompt.
type MockClient struct {
	ModelVersion string
}

func (m MockClient) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	switch {
	case strings.Contains(prompt, "between -1 and 1"):
		scores := []string{"-0.6", "-0.2", "0", "0.3"}
		return scores[utils.Bucket(prompt, len(scores))], nil
	case strings.Contains(prompt, `"match"`):
		return `{"match": true, "reason": "mock judgment"}`, nil
	default:
		return "A maintenance agent will review the issue and follow the standard procedure.", nil
	}
}

func (m MockClient) CompleteWithImage(ctx context.Context, prompt string, image ImageRef, opts CompleteOptions) (string, error) {
	return "- photo shows an indoor area\n- no visible damage can be confirmed", nil
}

func (m MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	h := utils.HashStringToUint64(text)
	vec := make([]float32, 16)
	for i := range vec {
		vec[i] = float32((h>>uint(i*4))&0xF) / 15.0
	}
	return vec, nil
}
