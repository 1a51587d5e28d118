package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"daily-diagnosis-bot/internal/matcher"
	"daily-diagnosis-bot/internal/model"
)

type fixedRand struct{ n int }

func (f fixedRand) Intn(n int) int { return f.n % n }

func testCases() []model.Case {
	clues := []string{"1", "2", "3", "4", "5"}
	return []model.Case{
		{ID: "a", CanonicalName: "Asthma", Clues: clues, Category: "Pulmonology", Difficulty: 1},
		{ID: "b", CanonicalName: "Gout", AlternativeNames: []string{"Podagra"}, Clues: clues, Category: "Rheumatology", Difficulty: 2},
		{ID: "c", CanonicalName: "Pneumonia", Clues: clues, Category: "Pulmonology", Difficulty: 1},
	}
}

func TestRepositoryLookups(t *testing.T) {
	repo := New(testCases())

	all := repo.AllCases()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[2].ID)

	all[0].ID = "mutated"
	assert.Equal(t, "a", repo.AllCases()[0].ID, "AllCases must return a copy")

	pulm := repo.ByCategory("Pulmonology")
	require.Len(t, pulm, 2)
	assert.Equal(t, "c", pulm[1].ID)
	assert.Empty(t, repo.ByCategory("pulmonology"))

	c, ok := repo.Get("b")
	require.True(t, ok)
	assert.Equal(t, "Gout", c.CanonicalName)
	_, ok = repo.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"Pulmonology", "Rheumatology"}, repo.Categories())
}

func TestRandomCase(t *testing.T) {
	repo := New(testCases(), WithRand(fixedRand{n: 1}))

	c, ok := repo.RandomCase(nil)
	require.True(t, ok)
	assert.Equal(t, "b", c.ID)

	c, ok = repo.RandomCase(map[string]struct{}{"a": {}})
	require.True(t, ok)
	assert.Equal(t, "c", c.ID)

	_, ok = repo.RandomCase(map[string]struct{}{"a": {}, "b": {}, "c": {}})
	assert.False(t, ok)

	_, ok = New(nil).RandomCase(nil)
	assert.False(t, ok)

	c, ok = repo.RandomCaseIn("Rheumatology", nil)
	require.True(t, ok)
	assert.Equal(t, "b", c.ID)
}

// TestRandomCaseNeverExcludedProperty checks that RandomCase never returns an
// excluded case and only reports absence when every case is excluded.
func TestRandomCaseNeverExcludedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 20).Draw(t, "n")
		cases := make([]model.Case, n)
		for i := range cases {
			cases[i] = model.Case{ID: string(rune('a' + i))}
		}
		excluding := map[string]struct{}{}
		for _, c := range cases {
			if rapid.Bool().Draw(t, "exclude") {
				excluding[c.ID] = struct{}{}
			}
		}
		repo := New(cases, WithRand(fixedRand{n: rapid.IntRange(0, 100).Draw(t, "r")}))

		c, ok := repo.RandomCase(excluding)
		if len(excluding) == n {
			if ok {
				t.Fatalf("expected no case, got %q", c.ID)
			}
			return
		}
		if !ok {
			t.Fatalf("expected a case with %d of %d excluded", len(excluding), n)
		}
		if _, bad := excluding[c.ID]; bad {
			t.Fatalf("returned excluded case %q", c.ID)
		}
	})
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Myocardial Infarction", "myocardial-infarction"},
		{"Addison's Disease", "addisons-disease"},
		{"Graves’ Disease", "graves-disease"},
		{"Guillain-Barre  Syndrome", "guillain-barre-syndrome"},
		{"Guillain - Barre", "guillain-barre"},
		{"DKA", "dka"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testCases()))
	assert.Contains(t, buf.String(), `"diagnosisID": "asthma"`)
	assert.Contains(t, buf.String(), `"alternativeNames": []`)

	cases, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, "Gout", cases[1].CanonicalName)
	assert.Equal(t, []string{"Podagra"}, cases[1].AlternativeNames)

	_, err = Decode(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestBuildRegistry(t *testing.T) {
	cases := []model.Case{
		{ID: "1", CanonicalName: "Heart Attack", AlternativeNames: []string{"MI", "STEMI"}},
		{ID: "2", CanonicalName: "heart  attack", AlternativeNames: []string{"mi", "NSTEMI"}},
		{ID: "3", CanonicalName: "Gout"},
	}
	reg := BuildRegistry(cases)
	require.Len(t, reg.Diagnoses, 2)
	assert.Equal(t, RegistryEntry{
		ID:               "heart-attack",
		DisplayName:      "Heart Attack",
		AlternativeNames: []string{"MI", "STEMI", "NSTEMI"},
	}, reg.Diagnoses[0])
	assert.Equal(t, "gout", reg.Diagnoses[1].ID)
	assert.Empty(t, reg.Diagnoses[1].AlternativeNames)
}

func TestValidate(t *testing.T) {
	good := testCases()
	assert.Empty(t, Validate(good))

	bad := append(testCases(),
		model.Case{ID: "a", CanonicalName: "Asthma ", Clues: []string{"1"}, Difficulty: 9},
		model.Case{ID: "", CanonicalName: "", Clues: []string{"1", "2", "3", "4", ""}, Difficulty: 3},
	)
	issues := Validate(bad)

	var msgs []string
	for _, is := range issues {
		msgs = append(msgs, is.String())
	}
	joined := strings.Join(msgs, "\n")
	assert.Contains(t, joined, "a: duplicate id")
	assert.Contains(t, joined, "has 1 clues, want 5")
	assert.Contains(t, joined, "difficulty 9 outside 1-5")
	assert.Contains(t, joined, "blank id")
	assert.Contains(t, joined, "blank diagnosis name")
	assert.Contains(t, joined, "clue 5 is blank")
}

func TestValidateDuplicateDiagnosis(t *testing.T) {
	clues := []string{"1", "2", "3", "4", "5"}
	issues := Validate([]model.Case{
		{ID: "x", CanonicalName: "Gout", Clues: clues, Difficulty: 1},
		{ID: "y", CanonicalName: "gout", Clues: clues, Difficulty: 1},
	})
	require.Len(t, issues, 1)
	assert.Equal(t, "y", issues[0].CaseID)
}

func TestDefaultCatalog(t *testing.T) {
	repo, err := Default()
	require.NoError(t, err)
	require.Greater(t, repo.Len(), 10)
	assert.Empty(t, Validate(repo.AllCases()), "bundled catalog must be clean")

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, repo, again)

	lex, err := DefaultLexicon()
	require.NoError(t, err)
	for _, c := range repo.AllCases() {
		assert.Contains(t, lex, c.CanonicalName)
	}

	got := matcher.Suggestions("pneu", lex, 10)
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 10)
}

func TestOpenAndOpenLexicon(t *testing.T) {
	repo, err := Open("")
	require.NoError(t, err)
	bundled, err := Default()
	require.NoError(t, err)
	assert.Same(t, bundled, repo)

	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "cases.json")
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, testCases()))
	require.NoError(t, os.WriteFile(catalogPath, buf.Bytes(), 0o644))

	repo, err = Open(catalogPath)
	require.NoError(t, err)
	assert.Equal(t, len(testCases()), repo.Len())

	lexiconPath := filepath.Join(dir, "lexicon.txt")
	require.NoError(t, os.WriteFile(lexiconPath, []byte("Zebra Syndrome\n"), 0o644))
	lex, err := OpenLexicon(lexiconPath, repo)
	require.NoError(t, err)
	assert.Equal(t, "Zebra Syndrome", lex[0])
	for _, c := range testCases() {
		assert.Contains(t, lex, c.CanonicalName)
	}

	_, err = Open(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	_, err = OpenLexicon(filepath.Join(dir, "missing.txt"), repo)
	assert.Error(t, err)
}
