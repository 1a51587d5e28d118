package catalog

import (
	"fmt"
	"strings"

	"daily-diagnosis-bot/internal/model"
)

// ExpectedClues is the number of clues every case should carry.
const ExpectedClues = 5

// Difficulty bounds.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Issue is a data-quality problem found in a catalog. Issues never stop
// the catalog from loading.
type Issue struct {
	CaseID  string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.CaseID, i.Message)
}

// Validate checks cases for data-quality problems.
func Validate(cases []model.Case) []Issue {
	var issues []Issue
	add := func(id, format string, args ...any) {
		issues = append(issues, Issue{CaseID: id, Message: fmt.Sprintf(format, args...)})
	}

	ids := make(map[string]struct{}, len(cases))
	names := make(map[string]string, len(cases))

	for _, c := range cases {
		if strings.TrimSpace(c.ID) == "" {
			add(c.ID, "blank id")
		} else if _, dup := ids[c.ID]; dup {
			add(c.ID, "duplicate id")
		}
		ids[c.ID] = struct{}{}

		if strings.TrimSpace(c.CanonicalName) == "" {
			add(c.ID, "blank diagnosis name")
		} else {
			slug := Slug(c.CanonicalName)
			if other, ok := names[slug]; ok && other != c.ID {
				add(c.ID, "diagnosis %q already used by case %s", c.CanonicalName, other)
			} else if !ok {
				names[slug] = c.ID
			}
		}

		if len(c.Clues) != ExpectedClues {
			add(c.ID, "has %d clues, want %d", len(c.Clues), ExpectedClues)
		}
		for i, clue := range c.Clues {
			if strings.TrimSpace(clue) == "" {
				add(c.ID, "clue %d is blank", i+1)
			}
		}
		for _, alt := range c.AlternativeNames {
			if strings.TrimSpace(alt) == "" {
				add(c.ID, "blank alternative name")
			}
		}

		if c.Difficulty < MinDifficulty || c.Difficulty > MaxDifficulty {
			add(c.ID, "difficulty %d outside %d-%d", c.Difficulty, MinDifficulty, MaxDifficulty)
		}
	}
	return issues
}
