package knowledge

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/ai"
	"github.com/bms-ged/backend/internal/db"
	"github.com/bms-ged/backend/internal/models"
)

func TestSearchIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := db.New(ctx, url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	defer store.Close()

	kb := New(store.Pool, ai.MockClient{}, zerolog.Nop())

	seed := []models.Complaint{
		{ID: 910001, Category: models.CategoryPlumbing, Title: "Leaky faucet", Description: "dripping under the sink", Status: models.StatusResolved, Solution: "Replaced the washer"},
		{ID: 910002, Category: models.CategoryPlumbing, Title: "Burst pipe", Description: "flooded bathroom", Status: models.StatusResolved, Solution: "Sealed the joint"},
		{ID: 910003, Category: models.CategoryElectricity, Title: "Dead outlet", Description: "no power in the kitchen", Status: models.StatusResolved, Solution: "Reset the breaker"},
	}
	var ids []string
	for _, c := range seed {
		kc, err := CaseFromComplaint(c)
		if err != nil {
			t.Fatalf("build case: %v", err)
		}
		if err := kb.Insert(ctx, kc); err != nil {
			t.Fatalf("insert case: %v", err)
		}
		ids = append(ids, kc.ID)
	}
	defer func() {
		_, _ = store.Pool.Exec(ctx, `DELETE FROM knowledge_cases WHERE id = ANY($1)`, ids)
	}()

	matches := kb.Search(ctx, "water leaking from a pipe", models.CategoryPlumbing, 2)
	if len(matches) == 0 || len(matches) > 2 {
		t.Fatalf("expected 1-2 matches, got %d", len(matches))
	}
	for i, m := range matches {
		if m.Category != models.CategoryPlumbing {
			t.Fatalf("category filter violated: %+v", m)
		}
		if m.Score < 0 || m.Score > 1 {
			t.Fatalf("score out of [0,1]: %v", m.Score)
		}
		if i > 0 && m.Score > matches[i-1].Score {
			t.Fatalf("scores not descending: %+v", matches)
		}
	}

	if got := kb.Search(ctx, "anything", models.Category("NoSuchCategory"), 3); len(got) != 0 {
		t.Fatalf("expected no matches for unknown category, got %+v", got)
	}
}
