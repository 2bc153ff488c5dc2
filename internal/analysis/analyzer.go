// Package analysis derives per-criterion conformance results from
// normalized audit issues, the edition's criteria subset, and remediation
// history.
package analysis

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/s4cindia/conformance-engine/internal/catalog"
	"github.com/s4cindia/conformance-engine/internal/config"
	"github.com/s4cindia/conformance-engine/internal/logging"
	"github.com/s4cindia/conformance-engine/internal/model"
)

// Request carries everything one analysis run needs. Issues are expected
// to be normalized already (model.RawIssue.Normalize).
type Request struct {
	JobID        string
	Edition      string
	Issues       []model.Issue
	Remediation  []model.RemediationChange
	ForceRefresh bool
}

// Analyzer computes conformance analyses and keeps a read-through cache of
// results keyed by job id.
type Analyzer struct {
	catalog *catalog.Catalog
	cfg     config.AnalysisConfig
	log     *logging.Logger

	mu    sync.RWMutex
	cache map[string]*model.AnalysisResult
}

// New creates an Analyzer backed by the given catalog.
func New(cat *catalog.Catalog, cfg config.AnalysisConfig, log *logging.Logger) *Analyzer {
	if cfg.MaxFindings <= 0 {
		cfg.MaxFindings = 5
	}
	return &Analyzer{
		catalog: cat,
		cfg:     cfg,
		log:     log.With("analysis"),
		cache:   make(map[string]*model.AnalysisResult),
	}
}

// Analyze runs (or returns the cached) conformance analysis for a job.
// ForceRefresh bypasses the cache and overwrites it. The job id must be
// set and the edition must exist in the catalog.
func (a *Analyzer) Analyze(req Request) (*model.AnalysisResult, error) {
	if req.JobID == "" {
		return nil, &model.ValidationError{Field: "jobId", Reason: "must not be empty"}
	}

	if a.cfg.CacheEnable && !req.ForceRefresh {
		a.mu.RLock()
		cached, ok := a.cache[req.JobID]
		a.mu.RUnlock()
		if ok {
			a.log.Debug("cache hit for job %s", req.JobID)
			return cached, nil
		}
	}

	subset, err := a.catalog.EditionCriteria(req.Edition)
	if err != nil {
		return nil, err
	}

	result := &model.AnalysisResult{
		JobID:       req.JobID,
		Edition:     req.Edition,
		GeneratedAt: time.Now().UTC(),
		Unmapped:    a.catalog.UnmappedRules(req.Issues),
	}

	for _, sc := range subset {
		matched := a.relatedIssues(sc.ID, req.Issues)
		ca := a.analyzeCriterion(sc, matched, req.Remediation)
		result.Criteria = append(result.Criteria, ca)
	}
	result.Summary = summarize(result.Criteria)

	if a.cfg.CacheEnable {
		a.mu.Lock()
		a.cache[req.JobID] = result
		a.mu.Unlock()
	}

	a.log.Info("analyzed job %s: %d criteria, %d issues, %.1f%% conformance",
		req.JobID, len(result.Criteria), len(req.Issues), result.Summary.ConformancePct)
	return result, nil
}

// Cached returns the cached result for a job, if any.
func (a *Analyzer) Cached(jobID string) (*model.AnalysisResult, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.cache[jobID]
	return r, ok
}

// Invalidate drops the cached result for a job.
func (a *Analyzer) Invalidate(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.cache, jobID)
}

// relatedIssues selects the issues that count against a criterion:
// an explicit criterion tag (exact or dotted-prefix), a rule-code map hit,
// or the criterion id appearing as a whole token inside the rule code.
func (a *Analyzer) relatedIssues(criterionID string, issues []model.Issue) []model.Issue {
	var matched []model.Issue
	for _, issue := range issues {
		if a.issueRelates(criterionID, issue) {
			matched = append(matched, issue)
		}
	}
	return matched
}

func (a *Analyzer) issueRelates(criterionID string, issue model.Issue) bool {
	for _, tag := range issue.CriterionTags {
		if tag == criterionID || strings.HasPrefix(tag, criterionID+".") {
			return true
		}
	}
	for _, mapped := range a.catalog.MapRule(issue.RuleCode) {
		if mapped == criterionID {
			return true
		}
	}
	return ruleCodeContainsToken(issue.RuleCode, criterionID)
}

// ruleCodeContainsToken reports whether the criterion id appears as a
// whole word inside the rule code (e.g. "pdf/1.3.1/table-headers").
func ruleCodeContainsToken(ruleCode, criterionID string) bool {
	if ruleCode == "" {
		return false
	}
	for _, token := range strings.FieldsFunc(ruleCode, func(r rune) bool {
		return r != '.' && !('0' <= r && r <= '9') && !('a' <= r && r <= 'z') && !('A' <= r && r <= 'Z')
	}) {
		if token == criterionID {
			return true
		}
	}
	return false
}

// analyzeCriterion derives status, confidence, the fixed/remaining
// partition, findings, and the recommendation for one criterion.
func (a *Analyzer) analyzeCriterion(sc catalog.SuccessCriterion, matched []model.Issue, history []model.RemediationChange) model.CriterionAnalysis {
	ca := model.CriterionAnalysis{CriterionID: sc.ID}

	fixed, remaining := partitionFixed(sc.ID, matched, history)
	ca.FixedIssues = fixed
	ca.RemainingIssues = remaining

	ca.Status, ca.Confidence = deriveStatus(remaining, len(matched) > 0)
	ca.Findings = buildFindings(sc, remaining, fixed, a.cfg.MaxFindings)
	ca.Recommendation = recommendation(ca.Status, sc)
	return ca
}

// deriveStatus applies the severity precedence over the remaining
// (unfixed) issues. Order, first match wins: critical, serious, moderate,
// unrecognized, then minor-or-none. Unrecognized severities deliberately
// rank below moderate. A criterion with no related issues at all supports
// at lower confidence than one whose issues were all minor or fixed.
func deriveStatus(remaining []model.Issue, hadRelated bool) (model.ConformanceStatus, int) {
	var hasCritical, hasSerious, hasModerate, hasUnknown bool
	for _, issue := range remaining {
		switch issue.Severity {
		case model.SeverityCritical:
			hasCritical = true
		case model.SeveritySerious:
			hasSerious = true
		case model.SeverityModerate:
			hasModerate = true
		case model.SeverityUnknown:
			hasUnknown = true
		}
	}

	switch {
	case hasCritical:
		return model.StatusDoesNotSupport, 90
	case hasSerious:
		return model.StatusPartialSupports, 80
	case hasModerate:
		return model.StatusPartialSupports, 70
	case hasUnknown:
		return model.StatusPartialSupports, 60
	case hadRelated:
		return model.StatusSupports, 85
	default:
		return model.StatusSupports, 75
	}
}

// partitionFixed splits matched issues into fixed and remaining using the
// remediation history. The two sets are disjoint by construction.
func partitionFixed(criterionID string, matched []model.Issue, history []model.RemediationChange) ([]model.FixedIssue, []model.Issue) {
	var fixed []model.FixedIssue
	var remaining []model.Issue

	for _, issue := range matched {
		change, ok := remediationFor(criterionID, issue, history)
		if !ok {
			remaining = append(remaining, issue)
			continue
		}
		method := change.Method
		if method == "" {
			method = "manual"
		}
		fixed = append(fixed, model.FixedIssue{
			Issue:   issue,
			FixedAt: change.Timestamp,
			Method:  method,
		})
	}
	return fixed, remaining
}

func remediationFor(criterionID string, issue model.Issue, history []model.RemediationChange) (model.RemediationChange, bool) {
	for _, change := range history {
		if !change.Resolved() {
			continue
		}
		if change.RuleCode != "" && change.RuleCode == issue.RuleCode {
			return change, true
		}
		if change.CriterionID != "" && change.CriterionID == criterionID {
			return change, true
		}
	}
	return model.RemediationChange{}, false
}

// buildFindings emits at most max human-readable findings strings,
// remaining issues first.
func buildFindings(sc catalog.SuccessCriterion, remaining []model.Issue, fixed []model.FixedIssue, max int) []string {
	var findings []string
	for _, issue := range remaining {
		if len(findings) >= max {
			return findings
		}
		findings = append(findings, fmt.Sprintf("[%s] %s: %s (%s)",
			issue.Severity, issue.RuleCode, issue.Message, locationOf(issue)))
	}
	for _, fi := range fixed {
		if len(findings) >= max {
			return findings
		}
		findings = append(findings, fmt.Sprintf("[fixed:%s] %s: %s",
			fi.Method, fi.RuleCode, fi.Message))
	}
	if len(findings) == 0 {
		findings = append(findings, fmt.Sprintf("No issues detected for %s %s.", sc.ID, sc.Name))
	}
	return findings
}

func locationOf(issue model.Issue) string {
	switch {
	case issue.File != "" && issue.Location != "":
		return issue.File + " " + issue.Location
	case issue.File != "":
		return issue.File
	case issue.Location != "":
		return issue.Location
	default:
		return "unlocated"
	}
}

// recommendation returns the status-keyed remediation guidance.
func recommendation(status model.ConformanceStatus, sc catalog.SuccessCriterion) string {
	switch status {
	case model.StatusDoesNotSupport:
		return fmt.Sprintf("Criterion %s (%s) has blocking failures; remediate before publication.", sc.ID, sc.Name)
	case model.StatusPartialSupports:
		return fmt.Sprintf("Criterion %s (%s) is partially met; review and resolve the remaining issues.", sc.ID, sc.Name)
	case model.StatusNotApplicable:
		return fmt.Sprintf("Criterion %s (%s) marked not applicable; confirm during review.", sc.ID, sc.Name)
	default:
		return fmt.Sprintf("Criterion %s (%s) is met; no action required.", sc.ID, sc.Name)
	}
}

// summarize computes per-status counts. Not-applicable criteria are
// excluded from the conformance percentage denominator.
func summarize(criteria []model.CriterionAnalysis) model.AnalysisSummary {
	s := model.AnalysisSummary{Total: len(criteria)}
	for _, ca := range criteria {
		switch ca.Status {
		case model.StatusSupports:
			s.Supports++
		case model.StatusPartialSupports:
			s.Partial++
		case model.StatusDoesNotSupport:
			s.DoesNotSupport++
		case model.StatusNotApplicable:
			s.NotApplicable++
		}
	}
	applicable := s.Total - s.NotApplicable
	if applicable > 0 {
		s.ConformancePct = math.Round(float64(s.Supports)/float64(applicable)*1000) / 10
	}
	return s
}
