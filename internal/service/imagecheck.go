package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/ai"
)

const (
	imageNotesTimeout = 10 * time.Second
	imageNotesTokens  = 150
	judgmentTimeout   = 10 * time.Second
	judgmentTokens    = 100
)

// ImageValidator judges whether an uploaded photo matches the complaint text.
// The policy is fail-open: only an explicit "match": false blocks downstream
// flow; every failure resolves to a match.
type ImageValidator struct {
	AI     ai.Client
	Logger zerolog.Logger
}

type ConsistencyResult struct {
	Match  bool
	Reason string
	Notes  string
}

// Validate checks photo/description consistency. A missing photo is never a
// mismatch.
func (v *ImageValidator) Validate(ctx context.Context, description string, image ai.ImageRef, cachedNotes string) ConsistencyResult {
	if len(image.Data) == 0 {
		return ConsistencyResult{Match: true, Reason: "no photo provided"}
	}

	notes := strings.TrimSpace(cachedNotes)
	if notes == "" {
		var err error
		notes, err = v.describeImage(ctx, image)
		if err != nil {
			v.Logger.Warn().Err(err).Msg("image notes failed, passing validation open")
			return ConsistencyResult{Match: true, Reason: "image analysis unavailable"}
		}
	}

	prompt := buildJudgmentPrompt(description, notes)
	raw, err := v.AI.Complete(ctx, prompt, ai.CompleteOptions{
		MaxTokens: judgmentTokens,
		Timeout:   judgmentTimeout,
	})
	if err != nil {
		v.Logger.Warn().Err(err).Msg("image judgment failed, passing validation open")
		return ConsistencyResult{Match: true, Reason: "judgment unavailable", Notes: notes}
	}

	match, reason := parseJudgment(raw)
	return ConsistencyResult{Match: match, Reason: reason, Notes: notes}
}

func (v *ImageValidator) describeImage(ctx context.Context, image ai.ImageRef) (string, error) {
	prompt := "Describe this photo of a building maintenance issue as 2-4 short bullet observations. Only state what is visible."
	notes, err := v.AI.CompleteWithImage(ctx, prompt, image, ai.CompleteOptions{
		MaxTokens: imageNotesTokens,
		Timeout:   imageNotesTimeout,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(notes), nil
}

func buildJudgmentPrompt(description, notes string) string {
	var sb strings.Builder
	sb.WriteString("A resident filed a maintenance complaint with a photo.\n\n")
	sb.WriteString("Complaint description:\n" + description + "\n\n")
	sb.WriteString("Photo observations:\n" + notes + "\n\n")
	sb.WriteString(`Does the photo plausibly show the reported issue? Answer with a JSON object of the form {"match": true/false, "reason": "short reason"}.`)
	return sb.String()
}

// parseJudgment extracts a {match, reason} object from the raw model output.
// The response may wrap the JSON in prose or code fences, so a brace-window
// scan is used instead of strict parsing. Anything unparseable means match.
func parseJudgment(raw string) (bool, string) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return true, "no judgment returned"
	}

	var parsed struct {
		Match  *bool  `json:"match"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil || parsed.Match == nil {
		return true, "judgment not parseable"
	}
	reason := strings.TrimSpace(parsed.Reason)
	if reason == "" {
		reason = "no reason given"
	}
	return *parsed.Match, reason
}
