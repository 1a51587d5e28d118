package matcher

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"daily-diagnosis-bot/internal/model"
)

// Lexicon is a flat ordered list of diagnosis terms and abbreviations.
// Duplicates across synonyms are allowed; Suggestions deduplicates on read.
type Lexicon []string

// LoadLexicon reads one term per line from path.
func LoadLexicon(path string) (Lexicon, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadLexicon(file)
}

// ReadLexicon parses a lexicon from r. Blank lines and lines starting with '#' are skipped.
func ReadLexicon(r io.Reader) (Lexicon, error) {
	var terms Lexicon
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("lexicon is empty")
	}
	return terms, nil
}

// LexiconFromCases builds a lexicon from canonical names followed by every
// alternative name, in catalog order.
func LexiconFromCases(cases []model.Case) Lexicon {
	terms := make(Lexicon, 0, len(cases)*2)
	for _, c := range cases {
		terms = append(terms, c.CanonicalName)
	}
	for _, c := range cases {
		terms = append(terms, c.AlternativeNames...)
	}
	return terms
}

// Merge appends the terms of other after l.
func (l Lexicon) Merge(other Lexicon) Lexicon {
	out := make(Lexicon, 0, len(l)+len(other))
	out = append(out, l...)
	return append(out, other...)
}
