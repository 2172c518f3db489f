package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/models"
)

type fakeRoster struct {
	responders []models.Responder
	err        error
	lastSkill  string
}

func (f *fakeRoster) ListRespondersBySkill(ctx context.Context, skill string, limit int) ([]models.Responder, error) {
	f.lastSkill = skill
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responders) > limit {
		return f.responders[:limit], nil
	}
	return f.responders, nil
}

var testDefault = models.Responder{ID: 0, Name: "Maintenance Team"}

func TestSkillForCategory(t *testing.T) {
	cases := map[models.Category]string{
		models.CategoryElectricity: "Electrician",
		models.CategoryPlumbing:    "Plumber",
		models.CategoryTechnical:   "Technician",
		models.CategoryCaretaker:   "Caretaker",
	}
	for category, want := range cases {
		skill, ok := SkillForCategory(category)
		if !ok || skill != want {
			t.Fatalf("SkillForCategory(%s) = %q/%v, want %q", category, skill, ok, want)
		}
	}
	if _, ok := SkillForCategory(models.CategoryOther); ok {
		t.Fatal("Other must not map to a skill")
	}
}

func TestResolve_NoEligibleCandidates(t *testing.T) {
	roster := &fakeRoster{}
	r := &AssignmentResolver{Roster: roster, Default: testDefault, Logger: zerolog.Nop()}

	res := r.Resolve(context.Background(), models.CategoryElectricity)
	if res.OfferShown {
		t.Fatal("expected no offer when roster has no electricians")
	}
	if roster.lastSkill != "Electrician" {
		t.Fatalf("expected Electrician skill query, got %q", roster.lastSkill)
	}
	if got := res.Commit(""); got.ID != testDefault.ID {
		t.Fatalf("expected default responder, got %+v", got)
	}
}

func TestResolve_UnmappedCategorySkipsRoster(t *testing.T) {
	roster := &fakeRoster{responders: []models.Responder{{ID: 7, Name: "Alex"}}}
	r := &AssignmentResolver{Roster: roster, Default: testDefault, Logger: zerolog.Nop()}

	res := r.Resolve(context.Background(), models.CategoryOther)
	if res.OfferShown || len(res.Offered) != 0 {
		t.Fatalf("expected empty resolution for Other, got %+v", res)
	}
	if roster.lastSkill != "" {
		t.Fatal("roster must not be queried for an unmapped category")
	}
}

func TestResolve_RosterErrorFallsBackToDefault(t *testing.T) {
	roster := &fakeRoster{err: errors.New("db down")}
	r := &AssignmentResolver{Roster: roster, Default: testDefault, Logger: zerolog.Nop()}

	res := r.Resolve(context.Background(), models.CategoryPlumbing)
	if res.OfferShown {
		t.Fatal("expected no offer on roster error")
	}
	if got := res.Commit("anyone"); got.ID != testDefault.ID {
		t.Fatalf("expected default responder, got %+v", got)
	}
}

func TestCommit_MatchesCaseInsensitively(t *testing.T) {
	res := Resolution{
		Offered: []models.Responder{
			{ID: 3, Name: "Dana Fixit"},
			{ID: 4, Name: "Lee Pipes"},
		},
		Default:    testDefault,
		OfferShown: true,
	}

	if got := res.Commit("lee pipes"); got.ID != 4 {
		t.Fatalf("expected Lee Pipes, got %+v", got)
	}
	if got := res.Commit("  DANA FIXIT "); got.ID != 3 {
		t.Fatalf("expected Dana Fixit, got %+v", got)
	}
	if got := res.Commit("nobody"); got.ID != testDefault.ID {
		t.Fatalf("expected default for unmatched selection, got %+v", got)
	}
	if got := res.Commit(""); got.ID != testDefault.ID {
		t.Fatalf("expected default for missing selection, got %+v", got)
	}
}
