package sprint

import (
	"sort"

	"github.com/ivkor/sprintbot/models"
)

// flawToSprintCategory maps spot-the-flaw error categories onto sprint
// question categories. An error category without a mapping contributes no
// signal.
var flawToSprintCategory = map[string]string{
	"Algebraic Sign Error":          "square",
	"Ignoring Negative Root":        "square",
	"Integer Constraint Missed":     "prime",
	"Ratio Misapplied":              "reciprocal",
	"Calculation Shortcut Trap":     "table",
	"Proportionality Assumed Equal": "reciprocal",
	"Misread Constraint":            "prime",
}

// WeakCategories ranks sprint categories by how often their mapped flaw
// errors went uncaught, returning the top limit. Ties break by encounter
// order, so the flaws slice must be ordered oldest first.
func WeakCategories(flaws []models.FlawEntry, limit int) []string {
	counts := make(map[string]int)
	var order []string

	for _, f := range flaws {
		if f.Caught {
			continue
		}
		cat, ok := flawToSprintCategory[f.ErrorCategory]
		if !ok {
			continue
		}
		if counts[cat] == 0 {
			order = append(order, cat)
		}
		counts[cat]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

// MandatoryCategory derives the category a sprint must represent from the
// most recent flaw quiz outcome: a missed flaw guarantees its mapped
// category; a caught one (or no entry at all) guarantees nothing.
func MandatoryCategory(latest *models.FlawEntry) string {
	if latest == nil || latest.Caught {
		return ""
	}
	return flawToSprintCategory[latest.ErrorCategory]
}
