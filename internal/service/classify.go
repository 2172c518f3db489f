package service

import (
	"strings"

	"github.com/bms-ged/backend/internal/models"
)

var categoryKeywords = []struct {
	category models.Category
	words    []string
}{
	{models.CategoryPlumbing, []string{"water", "leak", "pipe", "sink", "toilet", "drain", "faucet", "flood"}},
	{models.CategoryElectricity, []string{"power", "electric", "light", "socket", "outlet", "breaker", "wiring"}},
	{models.CategoryTechnical, []string{"elevator", "lift", "heating", "boiler", "internet", "intercom", "door lock", "air conditioning"}},
	{models.CategoryCaretaker, []string{"clean", "garbage", "trash", "noise", "smell", "pest", "common area"}},
}

// InferCategory maps free-form complaint text to a category by keyword.
// Unmatched input yields Other, never an error.
func InferCategory(text string) models.Category {
	lower := strings.ToLower(text)
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if strings.Contains(lower, w) {
				return entry.category
			}
		}
	}
	return models.CategoryOther
}

// ValidCategory reports whether the given value is one of the known enum
// values.
func ValidCategory(c models.Category) bool {
	switch c {
	case models.CategoryElectricity, models.CategoryPlumbing, models.CategoryTechnical,
		models.CategoryCaretaker, models.CategoryOther:
		return true
	}
	return false
}

// ClampSentiment bounds a sentiment score to [-1, 1].
func ClampSentiment(score float64) float64 {
	if score < -1 {
		return -1
	}
	if score > 1 {
		return 1
	}
	return score
}
