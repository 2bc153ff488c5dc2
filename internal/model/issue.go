package model

import (
	"fmt"
	"strings"
	"time"
)

// Severity represents the impact tier of an audit issue.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityMinor
	SeverityModerate
	SeveritySerious
	SeverityCritical
)

// String returns the canonical severity name.
func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityModerate:
		return "moderate"
	case SeveritySerious:
		return "serious"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity converts an upstream severity label to a Severity.
// Producers disagree on vocabulary ("serious" vs "major"); both map to
// SeveritySerious. Anything unrecognized becomes SeverityUnknown rather
// than an error, so a single odd issue cannot sink an analysis run.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "blocker":
		return SeverityCritical
	case "serious", "major", "high":
		return SeveritySerious
	case "moderate", "medium":
		return SeverityModerate
	case "minor", "low", "info":
		return SeverityMinor
	default:
		return SeverityUnknown
	}
}

// Issue is the unified audit issue record after boundary normalization.
type Issue struct {
	ID            string
	RuleCode      string
	Severity      Severity
	Message       string
	File          string
	Location      string
	Snippet       string
	CriterionTags []string // explicit criterion ids attached by the producer
}

// String returns a brief summary of the issue.
func (i Issue) String() string {
	return fmt.Sprintf("%s [%s] %s (%s)", i.RuleCode, i.Severity, i.Message, i.File)
}

// RawIssue is the wire shape accepted from upstream audit producers. The
// producers use inconsistent field names for the same data; Normalize
// collapses the aliases into one Issue and substitutes defaults for
// anything missing.
type RawIssue struct {
	ID        string   `json:"id"`
	RuleCode  string   `json:"ruleCode"`
	Rule      string   `json:"rule"`
	Code      string   `json:"code"`
	Severity  string   `json:"severity"`
	Impact    string   `json:"impact"`
	Message   string   `json:"message"`
	Desc      string   `json:"description"`
	File      string   `json:"file"`
	Path      string   `json:"path"`
	Location  string   `json:"location"`
	Selector  string   `json:"selector"`
	Snippet   string   `json:"snippet"`
	Criteria  []string `json:"criteria"`
	Criterion string   `json:"criterion"`
}

// Normalize converts a RawIssue into the internal Issue type.
func (r RawIssue) Normalize() Issue {
	issue := Issue{
		ID:       r.ID,
		RuleCode: firstNonEmpty(r.RuleCode, r.Rule, r.Code),
		Severity: ParseSeverity(firstNonEmpty(r.Severity, r.Impact)),
		Message:  firstNonEmpty(r.Message, r.Desc),
		File:     firstNonEmpty(r.File, r.Path),
		Location: firstNonEmpty(r.Location, r.Selector),
		Snippet:  r.Snippet,
	}
	issue.CriterionTags = append(issue.CriterionTags, r.Criteria...)
	if r.Criterion != "" {
		issue.CriterionTags = append(issue.CriterionTags, r.Criterion)
	}
	if issue.RuleCode == "" {
		issue.RuleCode = "unknown-rule"
	}
	if issue.Message == "" {
		issue.Message = "no description provided"
	}
	return issue
}

// NormalizeIssues converts a batch of raw issues.
func NormalizeIssues(raw []RawIssue) []Issue {
	issues := make([]Issue, 0, len(raw))
	for _, r := range raw {
		issues = append(issues, r.Normalize())
	}
	return issues
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// RemediationChange records that an issue was remediated outside this
// engine, so the analyzer can partition matched issues into fixed and
// remaining.
type RemediationChange struct {
	RuleCode    string
	CriterionID string
	Status      string // completed, fixed, auto_fixed
	Method      string
	Timestamp   time.Time
}

// Resolved reports whether the change marks its target as actually fixed.
func (c RemediationChange) Resolved() bool {
	switch strings.ToLower(c.Status) {
	case "completed", "fixed", "auto_fixed", "auto-fixed", "autofixed":
		return true
	}
	return false
}
