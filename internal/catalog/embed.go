package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"daily-diagnosis-bot/internal/matcher"
)

//go:embed data/cases.json
var embeddedCases []byte

//go:embed data/lexicon.txt
var embeddedLexicon []byte

var (
	defaultOnce    sync.Once
	defaultRepo    *Repository
	defaultErr     error
	lexiconOnce    sync.Once
	defaultLexicon matcher.Lexicon
	lexiconErr     error
)

// Default returns the catalog bundled with the binary.
// The data is decoded once; callers share the same read-only repository.
func Default() (*Repository, error) {
	defaultOnce.Do(func() {
		cases, err := Decode(bytes.NewReader(embeddedCases))
		if err != nil {
			defaultErr = err
			return
		}
		defaultRepo = New(cases)
	})
	return defaultRepo, defaultErr
}

// DefaultLexicon returns the autocomplete lexicon bundled with the binary.
func DefaultLexicon() (matcher.Lexicon, error) {
	lexiconOnce.Do(func() {
		defaultLexicon, lexiconErr = matcher.ReadLexicon(bytes.NewReader(embeddedLexicon))
	})
	return defaultLexicon, lexiconErr
}

// Open returns the catalog at path, or the bundled one when path is empty.
func Open(path string) (*Repository, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// OpenLexicon returns the lexicon at path, or the bundled one when path is
// empty, followed by every name in repo so each answer can be suggested.
func OpenLexicon(path string, repo *Repository) (matcher.Lexicon, error) {
	var (
		lex matcher.Lexicon
		err error
	)
	if path == "" {
		lex, err = DefaultLexicon()
	} else {
		lex, err = matcher.LoadLexicon(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}
	return lex.Merge(matcher.LexiconFromCases(repo.AllCases())), nil
}
