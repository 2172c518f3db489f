package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/ai"
	"github.com/bms-ged/backend/internal/models"
)

// FallbackSolution is returned whenever retrieval or generation fails. The
// synthesizer must never abort the surrounding submission flow.
const FallbackSolution = "Please contact the maintenance office so an agent can assist you with this issue."

const (
	searchTopK       = 3
	contextMaxCases  = 2
	titleTruncateLen = 60
	solutionTruncLen = 200
	synthesisTimeout = 10 * time.Second
	synthesisTokens  = 120
)

type CaseSearcher interface {
	Search(ctx context.Context, query string, category models.Category, topK int) []models.SimilarityMatch
}

// Synthesizer recalls similar resolved cases and derives a proposed solution
// with a bounded generative call.
type Synthesizer struct {
	Cases  CaseSearcher
	AI     ai.Completer
	Logger zerolog.Logger
}

type Proposal struct {
	Solution  string
	CasesUsed int
	Fallback  bool
}

// Propose retrieves similar cases for the complaint and synthesizes a concise
// solution. Every failure path resolves to the static fallback.
func (s *Synthesizer) Propose(ctx context.Context, title, description string, category models.Category) Proposal {
	query := strings.TrimSpace(title + " " + description)
	matches := s.Cases.Search(ctx, query, category, searchTopK)
	if len(matches) > contextMaxCases {
		matches = matches[:contextMaxCases]
	}

	prompt := buildSolutionPrompt(title, description, category, matches)
	answer, err := s.AI.Complete(ctx, prompt, ai.CompleteOptions{
		MaxTokens: synthesisTokens,
		Timeout:   synthesisTimeout,
	})
	if err != nil || strings.TrimSpace(answer) == "" {
		s.Logger.Warn().Err(err).Msg("solution synthesis failed, using fallback")
		return Proposal{Solution: FallbackSolution, Fallback: true}
	}

	solution := strings.TrimSpace(answer)
	if len(matches) > 0 {
		solution = provenancePrefix(len(matches)) + solution
	}
	return Proposal{Solution: solution, CasesUsed: len(matches)}
}

func provenancePrefix(count int) string {
	noun := "cases"
	if count == 1 {
		noun = "case"
	}
	return fmt.Sprintf("Based on %d similar past %s: ", count, noun)
}

func buildSolutionPrompt(title, description string, category models.Category, matches []models.SimilarityMatch) string {
	var sb strings.Builder
	if len(matches) == 0 {
		sb.WriteString("You are a building maintenance assistant. A resident reported the issue below.\n")
		sb.WriteString("Suggest a generic, concise troubleshooting step in at most 150 characters.\n\n")
		fmt.Fprintf(&sb, "Category: %s\nTitle: %s\nDescription: %s\n", category, title, description)
		return sb.String()
	}

	sb.WriteString("You are a building maintenance assistant. A resident reported the issue below.\n")
	sb.WriteString("Propose a concise solution (at most 150 characters) grounded in the past resolved cases provided.\n\n")
	fmt.Fprintf(&sb, "Category: %s\nTitle: %s\nDescription: %s\n\nPast resolved cases:\n", category, title, description)
	sb.WriteString(contextBlock(matches))
	return sb.String()
}

// contextBlock renders the retrieved cases as a compact numbered list with
// truncated titles/solutions and percentage similarity.
func contextBlock(matches []models.SimilarityMatch) string {
	var sb strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&sb, "%d. [%s] %s — resolved by: %s (%.0f%% similar)\n",
			i+1, m.Category, truncate(m.Title, titleTruncateLen), truncate(m.Solution, solutionTruncLen), m.Score*100)
	}
	return sb.String()
}

// truncate shortens s to at most max runes, never splitting a multibyte
// character.
func truncate(s string, max int) string {
	if max <= 3 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
