package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/models"
)

const maxOfferedCandidates = 5

var categorySkill = map[models.Category]string{
	models.CategoryElectricity: "Electrician",
	models.CategoryPlumbing:    "Plumber",
	models.CategoryTechnical:   "Technician",
	models.CategoryCaretaker:   "Caretaker",
}

// SkillForCategory returns the responder skill required for a category, or
// false when the category has no mapping (Other and unknown values).
func SkillForCategory(c models.Category) (string, bool) {
	skill, ok := categorySkill[c]
	return skill, ok
}

type Roster interface {
	ListRespondersBySkill(ctx context.Context, skill string, limit int) ([]models.Responder, error)
}

// Resolution carries the candidate offer for the conversational layer plus
// the fallback identity. Every branch yields a valid responder.
type Resolution struct {
	Offered    []models.Responder
	Default    models.Responder
	OfferShown bool
}

// AssignmentResolver maps a complaint category to eligible responders. It
// never fails: when the roster query errors, no skill is mapped, or no
// candidate matches, resolution falls back to the default identity.
type AssignmentResolver struct {
	Roster  Roster
	Default models.Responder
	Logger  zerolog.Logger
}

func (r *AssignmentResolver) Resolve(ctx context.Context, category models.Category) Resolution {
	res := Resolution{Default: r.Default}

	skill, ok := SkillForCategory(category)
	if !ok {
		return res
	}

	candidates, err := r.Roster.ListRespondersBySkill(ctx, skill, maxOfferedCandidates)
	if err != nil {
		r.Logger.Warn().Err(err).Str("skill", skill).Msg("candidate lookup failed, using default responder")
		return res
	}
	if len(candidates) == 0 {
		return res
	}

	res.Offered = candidates
	res.OfferShown = true
	return res
}

// Commit matches a user selection case-insensitively by name against the
// offered list. A missing or unmatched selection resolves to the default.
func (res Resolution) Commit(selection string) models.Responder {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return res.Default
	}
	for _, c := range res.Offered {
		if strings.EqualFold(strings.TrimSpace(c.Name), selection) {
			return c
		}
	}
	return res.Default
}
