package catalog

import (
	"testing"

	"github.com/s4cindia/conformance-engine/internal/model"
)

func mustLoad(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cat
}

func TestLoad_CriteriaPresent(t *testing.T) {
	cat := mustLoad(t)

	sc, ok := cat.Criterion("1.4.3")
	if !ok {
		t.Fatal("criterion 1.4.3 missing")
	}
	if sc.Name != "Contrast (Minimum)" {
		t.Errorf("name = %q, want Contrast (Minimum)", sc.Name)
	}
	if sc.Level != "AA" {
		t.Errorf("level = %q, want AA", sc.Level)
	}
	if sc.Category != "perceivable" {
		t.Errorf("category = %q, want perceivable", sc.Category)
	}
}

func TestEditionCriteria_LevelSubsets(t *testing.T) {
	cat := mustLoad(t)

	levelA, err := cat.EditionCriteria("wcag2.1-a")
	if err != nil {
		t.Fatalf("EditionCriteria(wcag2.1-a) failed: %v", err)
	}
	levelAA, err := cat.EditionCriteria("wcag2.1-aa")
	if err != nil {
		t.Fatalf("EditionCriteria(wcag2.1-aa) failed: %v", err)
	}

	if len(levelA) >= len(levelAA) {
		t.Errorf("level A subset (%d) should be smaller than A+AA (%d)", len(levelA), len(levelAA))
	}
	for _, sc := range levelA {
		if sc.Level != "A" {
			t.Errorf("wcag2.1-a contains %s at level %s", sc.ID, sc.Level)
		}
	}
}

func TestEditionCriteria_UnknownEdition(t *testing.T) {
	cat := mustLoad(t)

	_, err := cat.EditionCriteria("wcag9")
	if !model.IsNotFound(err) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestMapRule_MultiCriterion(t *testing.T) {
	cat := mustLoad(t)

	got := cat.MapRule("link-name")
	if len(got) != 2 {
		t.Fatalf("MapRule(link-name) = %v, want 2 criteria", got)
	}
	if cat.MapRule("no-such-rule") != nil {
		t.Error("unmapped rule should return nil")
	}
}

func TestUnmappedRules(t *testing.T) {
	cat := mustLoad(t)

	issues := []model.Issue{
		{RuleCode: "img-alt"},
		{RuleCode: "mystery-rule"},
		{RuleCode: "mystery-rule"},
		{RuleCode: "tagged-rule", CriterionTags: []string{"1.1.1"}},
	}
	got := cat.UnmappedRules(issues)
	if len(got) != 1 || got[0] != "mystery-rule" {
		t.Errorf("UnmappedRules = %v, want [mystery-rule]", got)
	}
}

func TestCriterionOrdering(t *testing.T) {
	cat := mustLoad(t)

	all := cat.All()
	pos := make(map[string]int, len(all))
	for i, sc := range all {
		pos[sc.ID] = i
	}
	// Numeric segment ordering: 1.4.3 before 1.4.10.
	if pos["1.4.10"] < pos["1.4.3"] {
		t.Error("1.4.10 should sort after 1.4.3")
	}
	if pos["4.1.1"] < pos["1.1.1"] {
		t.Error("4.1.1 should sort after 1.1.1")
	}
}

func TestLessCriterionID(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"1.4.3", "1.4.10", true},
		{"1.4.10", "1.4.3", false},
		{"1.1.1", "1.1.1", false},
		{"2.4", "2.4.1", true},
	}
	for _, tt := range tests {
		if got := lessCriterionID(tt.a, tt.b); got != tt.want {
			t.Errorf("lessCriterionID(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
