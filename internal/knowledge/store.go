package knowledge

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/ai"
	"github.com/bms-ged/backend/internal/models"
)

// Store persists embedded representations of resolved complaints and serves
// filtered top-k similarity search. Retrieval is advisory: Search never
// returns an error to the caller.
type Store struct {
	Pool     *pgxpool.Pool
	Embedder ai.Embedder
	Logger   zerolog.Logger
}

func New(pool *pgxpool.Pool, embedder ai.Embedder, logger zerolog.Logger) *Store {
	return &Store{Pool: pool, Embedder: embedder, Logger: logger}
}

// CaseFromComplaint builds an ingestable knowledge case. Only resolved
// complaints with a non-empty solution qualify.
func CaseFromComplaint(c models.Complaint) (models.KnowledgeCase, error) {
	if c.Status != models.StatusResolved {
		return models.KnowledgeCase{}, fmt.Errorf("complaint %d is not resolved", c.ID)
	}
	if c.Solution == "" {
		return models.KnowledgeCase{}, fmt.Errorf("complaint %d has no solution", c.ID)
	}
	description := c.RephrasedDescription
	if description == "" {
		description = c.Description
	}
	return models.KnowledgeCase{
		ID:          fmt.Sprintf("complaint_%d_%s", c.ID, uuid.NewString()[:8]),
		ComplaintID: c.ID,
		Category:    c.Category,
		Title:       c.Title,
		Description: description,
		Solution:    c.Solution,
		Status:      "resolved",
	}, nil
}

func combinedText(kc models.KnowledgeCase) string {
	return fmt.Sprintf("Type: %s\nTitle: %s\nDescription: %s\nSolution: %s",
		kc.Category, kc.Title, kc.Description, kc.Solution)
}

func (s *Store) Insert(ctx context.Context, kc models.KnowledgeCase) error {
	embedding, err := s.Embedder.Embed(ctx, combinedText(kc))
	if err != nil {
		return fmt.Errorf("embed case: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO knowledge_cases (id, complaint_id, category, title, description, solution, status, embedding)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, kc.ID, kc.ComplaintID, kc.Category, kc.Title, kc.Description, kc.Solution, kc.Status,
		pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

// Search returns up to topK matches ordered by descending score, optionally
// restricted to an exact category. Failures are logged and produce an empty
// result.
func (s *Store) Search(ctx context.Context, query string, category models.Category, topK int) []models.SimilarityMatch {
	if topK <= 0 {
		topK = 3
	}
	embedding, err := s.Embedder.Embed(ctx, query)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("knowledge search: embedding failed")
		return []models.SimilarityMatch{}
	}

	vec := pgvector.NewVector(embedding)
	sql := `
		SELECT id, complaint_id, category, title, description, solution,
			embedding <=> $1 AS distance
		FROM knowledge_cases`
	args := []any{vec}
	if category != "" {
		sql += ` WHERE category = $2`
		args = append(args, category)
	}
	sql += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, topK)

	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("knowledge search: query failed")
		return []models.SimilarityMatch{}
	}
	defer rows.Close()

	var out []models.SimilarityMatch
	for rows.Next() {
		var (
			m        models.SimilarityMatch
			distance float64
		)
		if err := rows.Scan(&m.CaseID, &m.ComplaintID, &m.Category, &m.Title, &m.Description, &m.Solution, &distance); err != nil {
			s.Logger.Warn().Err(err).Msg("knowledge search: scan failed")
			return []models.SimilarityMatch{}
		}
		m.Score = scoreFromDistance(distance)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		s.Logger.Warn().Err(err).Msg("knowledge search: rows failed")
		return []models.SimilarityMatch{}
	}
	return sortMatches(out)
}

func (s *Store) Stats(ctx context.Context) (int64, error) {
	var count int64
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM knowledge_cases`).Scan(&count)
	return count, err
}

// Clear is a destructive reset used only by offline tooling and the admin
// endpoint, never by live submission handling.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `TRUNCATE knowledge_cases`)
	return err
}

// scoreFromDistance maps a cosine distance to a similarity score in [0,1].
func scoreFromDistance(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// sortMatches orders by descending score. Ties keep the store's returned
// order.
func sortMatches(matches []models.SimilarityMatch) []models.SimilarityMatch {
	if matches == nil {
		return []models.SimilarityMatch{}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
