package review

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/s4cindia/conformance-engine/internal/model"
)

// reviewCounts are the raw tallies the executive summary is keyed on.
type reviewCounts struct {
	passed        int
	failed        int
	notApplicable int
	unverified    int
}

func (c reviewCounts) applicable() int {
	return c.passed + c.failed + c.unverified
}

// passPct returns the pass percentage over applicable criteria, 100 when
// nothing applies.
func (c reviewCounts) passPct() float64 {
	applicable := c.applicable()
	if applicable == 0 {
		return 100
	}
	return math.Round(float64(c.passed)/float64(applicable)*1000) / 10
}

func countEntries(entries []model.VerificationEntry) reviewCounts {
	var c reviewCounts
	for _, e := range entries {
		tally(&c, e.Status, e.IsNotApplicable)
	}
	return c
}

func countReviews(reviews []model.CriterionReview) reviewCounts {
	var c reviewCounts
	for _, r := range reviews {
		tally(&c, r.Status, r.IsNotApplicable)
	}
	return c
}

func tally(c *reviewCounts, status string, isNA bool) {
	if isNA {
		c.notApplicable++
		return
	}
	switch strings.ToLower(status) {
	case "passed", "pass", "supports":
		c.passed++
	case "failed", "fail", "does_not_support", "partially_supports":
		c.failed++
	default:
		c.unverified++
	}
}

func summarizeReviews(reviews []model.CriterionReview) Summary {
	c := countReviews(reviews)
	return Summary{
		Applicable:    c.applicable(),
		NotApplicable: c.notApplicable,
		Passed:        c.passed,
		Failed:        c.failed,
		Unverified:    c.unverified,
		PassPct:       c.passPct(),
	}
}

// executiveSummary generates the deterministic report narrative. The
// framing sentence is keyed to the pass-percentage band; the methodology
// and recommendation paragraphs are fixed boilerplate.
func executiveSummary(docType string, c reviewCounts) string {
	pct := c.passPct()

	var framing string
	switch {
	case pct >= 100:
		framing = fmt.Sprintf(
			"This %s fully conforms to the evaluated accessibility criteria: all %d applicable criteria passed verification.",
			docType, c.applicable())
	case pct >= 80:
		framing = fmt.Sprintf(
			"This %s largely conforms to the evaluated accessibility criteria: %d of %d applicable criteria passed (%.1f%%). The remaining gaps are limited in scope and suitable for targeted remediation.",
			docType, c.passed, c.applicable(), pct)
	case pct >= 50:
		framing = fmt.Sprintf(
			"This %s partially conforms to the evaluated accessibility criteria: %d of %d applicable criteria passed (%.1f%%). Significant remediation work remains before the document can be considered conformant.",
			docType, c.passed, c.applicable(), pct)
	default:
		framing = fmt.Sprintf(
			"This %s does not yet conform to the evaluated accessibility criteria: only %d of %d applicable criteria passed (%.1f%%). Substantial remediation is required across multiple areas.",
			docType, c.passed, c.applicable(), pct)
	}

	if c.notApplicable > 0 {
		framing += fmt.Sprintf(" %d criteria were determined not applicable to this document and are excluded from the conformance figures.", c.notApplicable)
	}

	const methodology = " Methodology: findings combine automated structural analysis with human verification of each success criterion; every determination is recorded with its verification method and reviewer."
	const recommendation = " Recommendation: address failed criteria in severity order, re-run the automated audit after each remediation pass, and re-verify affected criteria before approval."

	return framing + methodology + recommendation
}

// inferDocumentType derives the document type from the file name and
// mime type, preferring the mime type when both disagree.
func inferDocumentType(fileName, mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "application/pdf":
		return "pdf"
	case "application/epub+zip":
		return "epub"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/msword":
		return "docx"
	case "text/html", "application/xhtml+xml":
		return "html"
	case "text/plain":
		return "text"
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "pdf"
	case ".epub":
		return "epub"
	case ".docx", ".doc":
		return "docx"
	case ".html", ".htm", ".xhtml":
		return "html"
	case ".txt", ".md":
		return "text"
	default:
		return "document"
	}
}
