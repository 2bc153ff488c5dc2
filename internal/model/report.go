package model

import (
	"time"
)

// ConformanceStatus is the per-criterion outcome of an analysis run.
type ConformanceStatus string

const (
	StatusSupports        ConformanceStatus = "supports"
	StatusPartialSupports ConformanceStatus = "partially_supports"
	StatusDoesNotSupport  ConformanceStatus = "does_not_support"
	StatusNotApplicable   ConformanceStatus = "not_applicable"
)

// Valid reports whether s is one of the four defined statuses.
func (s ConformanceStatus) Valid() bool {
	switch s {
	case StatusSupports, StatusPartialSupports, StatusDoesNotSupport, StatusNotApplicable:
		return true
	}
	return false
}

// FixedIssue is a matched issue that the remediation history marks as
// already resolved.
type FixedIssue struct {
	Issue
	FixedAt time.Time
	Method  string
}

// CriterionAnalysis is the derived conformance result for one criterion.
// Exactly one exists per criterion in the edition subset per run.
type CriterionAnalysis struct {
	CriterionID     string
	Status          ConformanceStatus
	Confidence      int // 0–100
	Findings        []string
	Recommendation  string
	FixedIssues     []FixedIssue
	RemainingIssues []Issue
}

// AnalysisSummary aggregates per-status counts for a run. Not-applicable
// criteria are excluded from the conformance percentage.
type AnalysisSummary struct {
	Total          int
	Supports       int
	Partial        int
	DoesNotSupport int
	NotApplicable  int
	ConformancePct float64
}

// AnalysisResult is the full output of one analyzer run over a job.
type AnalysisResult struct {
	JobID       string
	Edition     string
	GeneratedAt time.Time
	Criteria    []CriterionAnalysis
	Unmapped    []string // rule codes with no criterion mapping
	Summary     AnalysisSummary
}

// SuggestedStatus is the advisory applicability outcome for a topic.
type SuggestedStatus string

const (
	SuggestNotApplicable SuggestedStatus = "not_applicable"
	SuggestApplicable    SuggestedStatus = "applicable"
	SuggestUncertain     SuggestedStatus = "uncertain"
)

// DetectionCheck records one structural check the applicability scanner ran.
type DetectionCheck struct {
	Name   string
	Passed bool
	Detail string
}

// ApplicabilitySuggestion is a non-authoritative hint that one or more
// criteria may not apply to the audited document. It never overrides the
// analyzer; humans confirm or discard it during review.
type ApplicabilitySuggestion struct {
	Topic           string
	CriterionIDs    []string
	SuggestedStatus SuggestedStatus
	Confidence      int // 0–95
	Checks          []DetectionCheck
	Rationale       string
	EdgeCases       []string
}

// Draft is one version-in-progress of a conformance report for a job.
// Re-initialization always creates a new draft; prior drafts are never
// mutated.
type Draft struct {
	ID               string
	JobID            string
	Edition          string
	Status           string // draft, approved
	DocumentType     string
	FileName         string
	ExecutiveSummary string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ApprovedBy       string
	ApprovedAt       *time.Time
}

// Draft status values.
const (
	DraftStatusDraft    = "draft"
	DraftStatusApproved = "approved"
)

// CriterionReview is the human verification state for one criterion in a
// draft.
type CriterionReview struct {
	DraftID         string
	CriterionID     string
	Status          string // passed, failed, not_verified, ...
	Method          string
	Notes           string
	IsNotApplicable bool
	NAReason        string
	Confidence      int
	Reviewer        string
	UpdatedAt       time.Time
}

// ChangeLogEntry is one append-only audit-trail row for a draft.
type ChangeLogEntry struct {
	ID        int64
	DraftID   string
	Actor     string
	Field     string
	Previous  string
	New       string
	Type      string
	CreatedAt time.Time
}

// Change-log entry types, in classification priority order.
const (
	ChangeNAToggle           = "na_toggle"
	ChangeStatus             = "status_change"
	ChangeRemarks            = "remarks_update"
	ChangeGeneral            = "general_update"
	ChangeVerificationImport = "verification_import"
)

// SnapshotCriterion is one criterion row inside a report snapshot.
type SnapshotCriterion struct {
	ID               string         `json:"id"`
	ConformanceLevel string         `json:"conformanceLevel"`
	Remarks          string         `json:"remarks"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// ReportSnapshot is the immutable value captured by each report version.
type ReportSnapshot struct {
	Status      string              `json:"status"`
	Edition     string              `json:"edition"`
	ProductInfo map[string]any      `json:"productInfo,omitempty"`
	Criteria    []SnapshotCriterion `json:"criteria"`
}

// SnapshotChange is one entry in a version's computed change log.
type SnapshotChange struct {
	Field    string `json:"field"`
	Previous any    `json:"previous,omitempty"`
	New      any    `json:"new,omitempty"`
	Type     string `json:"type"`
}

// Snapshot change types.
const (
	SnapCreated        = "created"
	SnapFieldChanged   = "field_changed"
	SnapCriterionAdded = "criterion_added"
	SnapCriterionGone  = "criterion_removed"
	SnapLevelChanged   = "level_changed"
	SnapRemarksChanged = "remarks_changed"
)

// Version is one immutable numbered snapshot of a report. Numbers for a
// report id are unique and strictly increasing from 1.
type Version struct {
	ReportID  string
	Number    int
	Snapshot  ReportSnapshot
	Actor     string
	Reason    string
	ChangeLog []SnapshotChange
	CreatedAt time.Time
}

// VerificationEntry is one human verification record imported from the
// upstream review surface.
type VerificationEntry struct {
	CriterionID     string `json:"criterionId"`
	Status          string `json:"status"`
	Method          string `json:"method"`
	Notes           string `json:"notes"`
	IsNotApplicable bool   `json:"isNotApplicable"`
	NAReason        string `json:"naReason"`
	Reviewer        string `json:"reviewer"`
	Confidence      int    `json:"confidence"`
}
