package classify

import (
	"testing"

	"github.com/s4cindia/conformance-engine/internal/model"
)

func issue(rule string, sev model.Severity) model.Issue {
	return model.Issue{RuleCode: rule, Severity: sev, Message: "test"}
}

func TestClassify_AutofixNeedsHighConfidenceAndLowRisk(t *testing.T) {
	c := Classify(issue("html-has-lang", model.SeverityMinor), Context{})
	if c.Class != Autofix {
		t.Errorf("class = %s, want autofix (confidence %.2f, risk %.2f)", c.Class, c.Confidence, c.Risk)
	}

	// Same rule at critical severity: risk 0.9 blocks autofix.
	c = Classify(issue("html-has-lang", model.SeverityCritical), Context{})
	if c.Class != Quickfix {
		t.Errorf("class = %s, want quickfix when risk is high", c.Class)
	}
	if c.Risk != 0.9 {
		t.Errorf("risk = %.2f, want 0.9 for critical", c.Risk)
	}
}

func TestClassify_QuickfixTier(t *testing.T) {
	c := Classify(issue("img-alt", model.SeverityModerate), Context{})
	if c.Class != Quickfix {
		t.Errorf("class = %s, want quickfix at confidence %.2f", c.Class, c.Confidence)
	}
	if c.Confidence != 0.72 {
		t.Errorf("confidence = %.2f, want calibrated 0.72", c.Confidence)
	}
}

func TestClassify_ManualTier(t *testing.T) {
	c := Classify(issue("reading-order", model.SeverityModerate), Context{})
	if c.Class != Manual {
		t.Errorf("class = %s, want manual at confidence %.2f", c.Class, c.Confidence)
	}
}

func TestClassify_UncalibratedRuleUsesBase(t *testing.T) {
	c := Classify(issue("never-seen-rule", model.SeverityMinor), Context{})
	if c.Confidence != 0.5 {
		t.Errorf("confidence = %.2f, want base 0.5", c.Confidence)
	}
	if c.Class != Manual {
		t.Errorf("class = %s, want manual", c.Class)
	}
}

func TestClassify_RiskTiers(t *testing.T) {
	tests := []struct {
		sev  model.Severity
		want float64
	}{
		{model.SeverityCritical, 0.9},
		{model.SeveritySerious, 0.5},
		{model.SeverityModerate, 0.1},
		{model.SeverityMinor, 0.1},
		{model.SeverityUnknown, 0.1},
	}
	for _, tt := range tests {
		c := Classify(issue("img-alt", tt.sev), Context{})
		if c.Risk != tt.want {
			t.Errorf("risk(%s) = %.2f, want %.2f", tt.sev, c.Risk, tt.want)
		}
	}
}

func TestClassify_ComplexTableLowersConfidence(t *testing.T) {
	simple := Classify(issue("table-headers", model.SeverityModerate), Context{
		TableMarkup: `<table><tr><th>a</th><th>b</th></tr><tr><td>1</td><td>2</td></tr></table>`,
	})
	if simple.TableKind != "simple" {
		t.Errorf("table kind = %q, want simple", simple.TableKind)
	}

	complexTable := Classify(issue("table-headers", model.SeverityModerate), Context{
		TableMarkup: `<table><tr><td colspan="2">merged</td></tr></table>`,
	})
	if complexTable.TableKind != "complex" {
		t.Errorf("table kind = %q, want complex for colspan", complexTable.TableKind)
	}
	if complexTable.Confidence >= simple.Confidence {
		t.Errorf("complex confidence %.2f should be below simple %.2f",
			complexTable.Confidence, simple.Confidence)
	}

	nested := Classify(issue("table-headers", model.SeverityModerate), Context{
		TableMarkup: `<table><tr><td><table><tr><td>inner</td></tr></table></td></tr></table>`,
	})
	if nested.TableKind != "complex" {
		t.Errorf("table kind = %q, want complex for nested table", nested.TableKind)
	}
}

func TestClassify_MissingTableMarkupDefaultsSimple(t *testing.T) {
	c := Classify(issue("table-headers", model.SeverityModerate), Context{})
	if c.TableKind != "simple" {
		t.Errorf("table kind = %q, want conservative simple default", c.TableKind)
	}
	if c.Confidence != 0.55 {
		t.Errorf("confidence = %.2f, want unadjusted 0.55", c.Confidence)
	}
}

func TestClassify_ImageRoles(t *testing.T) {
	decorative := Classify(issue("img-alt", model.SeverityModerate), Context{ImageRole: "presentation"})
	if decorative.ImageRole != "decorative" {
		t.Errorf("role = %q, want decorative", decorative.ImageRole)
	}
	if decorative.Confidence != 0.82 {
		t.Errorf("decorative confidence = %.2f, want 0.72 + 0.10", decorative.Confidence)
	}

	hidden := Classify(issue("img-alt", model.SeverityModerate), Context{AriaHidden: true})
	if hidden.ImageRole != "decorative" {
		t.Errorf("aria-hidden role = %q, want decorative", hidden.ImageRole)
	}

	chart := Classify(issue("img-alt", model.SeverityModerate), Context{ImagePath: "figures/sales-chart.png"})
	if chart.ImageRole != "chart" {
		t.Errorf("role = %q, want chart", chart.ImageRole)
	}
	if chart.Confidence >= decorative.Confidence {
		t.Errorf("chart confidence %.2f should be below decorative %.2f",
			chart.Confidence, decorative.Confidence)
	}

	diagram := Classify(issue("img-alt", model.SeverityModerate), Context{ImagePath: "img/wiring-diagram.svg"})
	if diagram.ImageRole != "diagram" {
		t.Errorf("role = %q, want diagram", diagram.ImageRole)
	}

	content := Classify(issue("img-alt", model.SeverityModerate), Context{ImagePath: "img/cover.jpg"})
	if content.ImageRole != "content" {
		t.Errorf("role = %q, want content default", content.ImageRole)
	}
}

func TestClassify_ConfidenceClamped(t *testing.T) {
	// The decorative bonus must never push confidence past the 0.98 cap.
	c := Classify(issue("img-alt", model.SeverityMinor), Context{ImageRole: "none"})
	if c.Confidence > 0.98 {
		t.Errorf("confidence = %.2f, want at most 0.98", c.Confidence)
	}
}

func TestClassify_IsPure(t *testing.T) {
	in := issue("color-contrast", model.SeveritySerious)
	a := Classify(in, Context{})
	b := Classify(in, Context{})
	if a != b {
		t.Errorf("Classify is not deterministic: %+v vs %+v", a, b)
	}
}
