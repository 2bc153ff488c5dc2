// Package classify scores an audit issue's auto-fixability and assigns it
// a remediation class. Classification is a pure computation: the same
// issue and context always produce the same result.
package classify

import (
	"regexp"
	"strings"

	"github.com/s4cindia/conformance-engine/internal/model"
)

// FixClass is the remediation route for an issue.
type FixClass string

const (
	Autofix  FixClass = "autofix"  // safe to apply without review
	Quickfix FixClass = "quickfix" // apply with a one-click human confirmation
	Manual   FixClass = "manual"   // needs human judgment
)

// Classification is the scored remediation decision for one issue.
type Classification struct {
	Class      FixClass
	Confidence float64 // 0–1
	Risk       float64 // 0–1, derived from severity
	TableKind  string  // simple or complex, when table context was inspected
	ImageRole  string  // decorative, content, chart, or diagram, when image context was inspected
}

// Context carries optional unpacked-content lookups for an issue. Missing
// content is tolerated: classification falls back to the conservative
// defaults (simple table, content image).
type Context struct {
	TableMarkup string // markup of the table the issue points at
	ImagePath   string // file path of the image the issue points at
	ImageRole   string // role attribute, if the producer extracted one
	AriaHidden  bool   // aria-hidden="true" on the element
}

// ruleConfidence is the calibrated per-rule-code confidence table. Rules
// absent from the table use the 0.5 base.
var ruleConfidence = map[string]float64{
	"html-has-lang":      0.98,
	"html-lang-valid":    0.97,
	"document-title":     0.96,
	"duplicate-id":       0.96,
	"meta-refresh":       0.95,
	"tabindex":           0.90,
	"aria-roles":         0.85,
	"aria-required-attr": 0.82,
	"skip-link":          0.78,
	"bypass":             0.75,
	"img-alt":            0.72,
	"image-alt":          0.72,
	"figure-alt":         0.70,
	"link-name":          0.70,
	"empty-heading":      0.68,
	"heading-order":      0.65,
	"color-contrast":     0.60,
	"label":              0.58,
	"form-field-label":   0.56,
	"table-headers":      0.55,
	"th-has-data-cells":  0.52,
	"td-headers-attr":    0.50,
	"audio-caption":      0.45,
	"video-caption":      0.45,
	"audio-description":  0.42,
	"reading-order":      0.40,
}

const baseConfidence = 0.5

// Classify scores one issue and assigns its remediation class: autofix
// needs confidence of at least 0.95 with risk at most 0.1, quickfix needs
// confidence of at least 0.70, everything else is manual.
func Classify(issue model.Issue, ctx Context) Classification {
	confidence := baseConfidence
	if calibrated, ok := ruleConfidence[issue.RuleCode]; ok {
		confidence = calibrated
	}

	c := Classification{Risk: riskOf(issue.Severity)}

	if isTableRule(issue.RuleCode) {
		c.TableKind = tableComplexity(ctx.TableMarkup)
		if c.TableKind == "complex" {
			confidence -= 0.25
		}
	}
	if isImageRule(issue.RuleCode) {
		c.ImageRole = imageRole(ctx)
		switch c.ImageRole {
		case "decorative":
			confidence += 0.10
		case "chart", "diagram":
			confidence -= 0.20
		}
	}

	if confidence > 0.98 {
		confidence = 0.98
	}
	if confidence < 0.05 {
		confidence = 0.05
	}
	c.Confidence = confidence

	switch {
	case confidence >= 0.95 && c.Risk <= 0.1:
		c.Class = Autofix
	case confidence >= 0.70:
		c.Class = Quickfix
	default:
		c.Class = Manual
	}
	return c
}

// riskOf maps issue severity to a numeric risk tier.
func riskOf(sev model.Severity) float64 {
	switch sev {
	case model.SeverityCritical:
		return 0.9
	case model.SeveritySerious:
		return 0.5
	default:
		return 0.1
	}
}

func isTableRule(ruleCode string) bool {
	switch ruleCode {
	case "table-headers", "th-has-data-cells", "td-headers-attr":
		return true
	}
	return false
}

func isImageRule(ruleCode string) bool {
	switch ruleCode {
	case "img-alt", "image-alt", "figure-alt", "area-alt":
		return true
	}
	return false
}

var (
	reNestedTable = regexp.MustCompile(`(?is)<table[\s>].*<table[\s>]`)
	reSpanAttr    = regexp.MustCompile(`(?i)(col|row)span\s*=`)
	reTableRow    = regexp.MustCompile(`(?i)<tr[\s>/]`)
	reTableCell   = regexp.MustCompile(`(?i)<t[dh][\s>/]`)
)

// tableComplexity inspects table markup for structure that makes header
// association hard to fix automatically. Missing markup defaults to
// "simple".
func tableComplexity(markup string) string {
	if markup == "" {
		return "simple"
	}
	if reNestedTable.MatchString(markup) {
		return "complex"
	}
	if reSpanAttr.MatchString(markup) {
		return "complex"
	}
	rows := len(reTableRow.FindAllString(markup, -1))
	cells := len(reTableCell.FindAllString(markup, -1))
	if rows > 0 && cells/rows > 10 {
		return "complex"
	}
	if rows > 30 {
		return "complex"
	}
	return "simple"
}

var (
	reChartName   = regexp.MustCompile(`(?i)(chart|graph|plot|histogram)`)
	reDiagramName = regexp.MustCompile(`(?i)(diagram|schematic|flowchart|blueprint)`)
)

// imageRole classifies the image an issue points at. Missing context
// defaults to "content", the role demanding the most careful fix.
func imageRole(ctx Context) string {
	role := strings.ToLower(strings.TrimSpace(ctx.ImageRole))
	if role == "presentation" || role == "none" || ctx.AriaHidden {
		return "decorative"
	}
	name := strings.ToLower(ctx.ImagePath)
	switch {
	case reChartName.MatchString(name):
		return "chart"
	case reDiagramName.MatchString(name):
		return "diagram"
	default:
		return "content"
	}
}
