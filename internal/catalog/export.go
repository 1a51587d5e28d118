package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"daily-diagnosis-bot/internal/model"
)

// Export is the on-disk catalog shape.
type Export struct {
	Cases []ExportCase `json:"cases"`
}

// ExportCase is one case as written to a catalog file.
type ExportCase struct {
	ID               string   `json:"id"`
	DiagnosisID      string   `json:"diagnosisID"`
	Diagnosis        string   `json:"diagnosis"`
	Hints            []string `json:"hints"`
	Category         string   `json:"category"`
	Difficulty       int      `json:"difficulty"`
	AlternativeNames []string `json:"alternativeNames"`
}

// Registry is the de-duplicated list of diagnoses referenced by a catalog.
type Registry struct {
	Diagnoses []RegistryEntry `json:"diagnoses"`
}

// RegistryEntry is one diagnosis keyed by its slug.
type RegistryEntry struct {
	ID               string   `json:"id"`
	DisplayName      string   `json:"displayName"`
	AlternativeNames []string `json:"alternativeNames"`
}

// Slug derives the diagnosis id from a display name: lower-cased, spaces
// become hyphens, apostrophes are dropped and hyphen runs collapse to one.
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch r {
		case '\'', '’':
			continue
		case ' ', '-':
			if lastHyphen {
				continue
			}
			b.WriteRune('-')
			lastHyphen = true
		default:
			b.WriteRune(r)
			lastHyphen = false
		}
	}
	return b.String()
}

// Decode reads a catalog export and returns its cases in file order.
func Decode(r io.Reader) ([]model.Case, error) {
	var doc Export
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	cases := make([]model.Case, 0, len(doc.Cases))
	for _, ec := range doc.Cases {
		cases = append(cases, model.Case{
			ID:               ec.ID,
			CanonicalName:    ec.Diagnosis,
			AlternativeNames: ec.AlternativeNames,
			Clues:            ec.Hints,
			Category:         ec.Category,
			Difficulty:       ec.Difficulty,
		})
	}
	return cases, nil
}

// ToExport converts cases to the export shape, filling in diagnosis slugs.
func ToExport(cases []model.Case) Export {
	doc := Export{Cases: make([]ExportCase, 0, len(cases))}
	for _, c := range cases {
		alts := c.AlternativeNames
		if alts == nil {
			alts = []string{}
		}
		doc.Cases = append(doc.Cases, ExportCase{
			ID:               c.ID,
			DiagnosisID:      Slug(c.CanonicalName),
			Diagnosis:        c.CanonicalName,
			Hints:            c.Clues,
			Category:         c.Category,
			Difficulty:       c.Difficulty,
			AlternativeNames: alts,
		})
	}
	return doc
}

// BuildRegistry groups cases by diagnosis slug. The first display name seen
// for a slug wins; alternative names are merged without case-insensitive repeats.
func BuildRegistry(cases []model.Case) Registry {
	var reg Registry
	index := make(map[string]int)
	seenAlt := make(map[string]map[string]struct{})

	for _, c := range cases {
		slug := Slug(c.CanonicalName)
		i, ok := index[slug]
		if !ok {
			i = len(reg.Diagnoses)
			index[slug] = i
			seenAlt[slug] = make(map[string]struct{})
			reg.Diagnoses = append(reg.Diagnoses, RegistryEntry{
				ID:               slug,
				DisplayName:      c.CanonicalName,
				AlternativeNames: []string{},
			})
		}
		for _, alt := range c.AlternativeNames {
			key := strings.ToLower(alt)
			if _, dup := seenAlt[slug][key]; dup {
				continue
			}
			seenAlt[slug][key] = struct{}{}
			reg.Diagnoses[i].AlternativeNames = append(reg.Diagnoses[i].AlternativeNames, alt)
		}
	}
	return reg
}

// Encode writes cases in the export shape.
func Encode(w io.Writer, cases []model.Case) error {
	return writeJSON(w, ToExport(cases))
}

// EncodeRegistry writes the diagnosis registry derived from cases.
func EncodeRegistry(w io.Writer, cases []model.Case) error {
	return writeJSON(w, BuildRegistry(cases))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return nil
}
