// Package review merges analyzer output, human verification, and
// applicability suggestions into editable report drafts with an
// append-only audit trail.
package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/s4cindia/conformance-engine/internal/catalog"
	"github.com/s4cindia/conformance-engine/internal/logging"
	"github.com/s4cindia/conformance-engine/internal/model"
	"github.com/s4cindia/conformance-engine/internal/storage"
)

// ReviewerResolver maps a reviewer id to a display name. A nil resolver
// leaves the id as-is.
type ReviewerResolver func(id string) string

// Aggregator owns the draft report lifecycle.
type Aggregator struct {
	store    storage.Store
	catalog  *catalog.Catalog
	log      *logging.Logger
	resolver ReviewerResolver
}

// NewAggregator creates an Aggregator. resolver may be nil.
func NewAggregator(store storage.Store, cat *catalog.Catalog, log *logging.Logger, resolver ReviewerResolver) *Aggregator {
	return &Aggregator{
		store:    store,
		catalog:  cat,
		log:      log.With("review"),
		resolver: resolver,
	}
}

// InitRequest carries the inputs for draft initialization.
type InitRequest struct {
	JobID    string
	Edition  string
	FileName string
	MimeType string
	Entries  []model.VerificationEntry
	Actor    string
}

// InitializeFromVerification creates a brand-new draft from upstream
// verification records. It never mutates a prior draft: re-initializing a
// job yields a fresh draft id every time.
func (a *Aggregator) InitializeFromVerification(req InitRequest) (model.Draft, error) {
	if req.JobID == "" {
		return model.Draft{}, &model.ValidationError{Field: "jobId", Reason: "must not be empty"}
	}
	if len(req.Entries) == 0 {
		return model.Draft{}, &model.ValidationError{Field: "entries", Reason: "verification payload is empty"}
	}
	for i, e := range req.Entries {
		if e.CriterionID == "" {
			return model.Draft{}, &model.ValidationError{
				Field:  fmt.Sprintf("entries[%d].criterionId", i),
				Reason: "must not be empty",
			}
		}
	}

	now := time.Now().UTC()
	counts := countEntries(req.Entries)
	draft := model.Draft{
		ID:               uuid.NewString(),
		JobID:            req.JobID,
		Edition:          req.Edition,
		Status:           model.DraftStatusDraft,
		DocumentType:     inferDocumentType(req.FileName, req.MimeType),
		FileName:         req.FileName,
		ExecutiveSummary: executiveSummary(inferDocumentType(req.FileName, req.MimeType), counts),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := a.store.CreateDraft(draft); err != nil {
		return model.Draft{}, fmt.Errorf("creating draft: %w", err)
	}

	for _, e := range req.Entries {
		rv := model.CriterionReview{
			DraftID:         draft.ID,
			CriterionID:     e.CriterionID,
			Status:          e.Status,
			Method:          e.Method,
			Notes:           e.Notes,
			IsNotApplicable: e.IsNotApplicable,
			NAReason:        e.NAReason,
			Confidence:      e.Confidence,
			Reviewer:        e.Reviewer,
			UpdatedAt:       now,
		}
		if err := a.store.UpsertReview(rv); err != nil {
			return model.Draft{}, fmt.Errorf("importing verification for %s: %w", e.CriterionID, err)
		}
		// The audit trail is a side channel: a failed row is logged but
		// never rolls back the import.
		a.appendLog(model.ChangeLogEntry{
			DraftID:   draft.ID,
			Actor:     req.Actor,
			Field:     e.CriterionID,
			New:       describeReview(rv),
			Type:      model.ChangeVerificationImport,
			CreatedAt: now,
		})
	}

	a.log.Info("initialized draft %s for job %s (%d criteria imported)",
		draft.ID, req.JobID, len(req.Entries))
	return draft, nil
}

// CriterionUpdate holds the fields UpdateCriterion may change. Nil
// pointers leave the stored value untouched.
type CriterionUpdate struct {
	Status          *string
	Method          *string
	Notes           *string
	IsNotApplicable *bool
	NAReason        *string
	Confidence      *int
}

// UpdateCriterion applies a human edit to one criterion review: snapshot
// the prior values, apply the update, classify and log the change, then
// refresh the draft's aggregates. Approved drafts reject edits.
func (a *Aggregator) UpdateCriterion(draftID, criterionID string, upd CriterionUpdate, actor string) (model.CriterionReview, error) {
	draft, err := a.store.Draft(draftID)
	if err != nil {
		return model.CriterionReview{}, err
	}
	if draft.Status == model.DraftStatusApproved {
		return model.CriterionReview{}, &model.ValidationError{
			Field:  "status",
			Reason: "draft is approved and can no longer be edited",
		}
	}

	prior, err := a.store.Review(draftID, criterionID)
	if err != nil {
		return model.CriterionReview{}, err
	}

	updated := prior
	if upd.Status != nil {
		updated.Status = *upd.Status
	}
	if upd.Method != nil {
		updated.Method = *upd.Method
	}
	if upd.Notes != nil {
		updated.Notes = *upd.Notes
	}
	if upd.IsNotApplicable != nil {
		updated.IsNotApplicable = *upd.IsNotApplicable
	}
	if upd.NAReason != nil {
		updated.NAReason = *upd.NAReason
	}
	if upd.Confidence != nil {
		updated.Confidence = *upd.Confidence
	}
	updated.Reviewer = actor
	updated.UpdatedAt = time.Now().UTC()

	if err := a.store.UpsertReview(updated); err != nil {
		return model.CriterionReview{}, fmt.Errorf("updating review: %w", err)
	}

	a.appendLog(model.ChangeLogEntry{
		DraftID:   draftID,
		Actor:     actor,
		Field:     criterionID,
		Previous:  describeReview(prior),
		New:       describeReview(updated),
		Type:      classifyChange(prior, updated),
		CreatedAt: updated.UpdatedAt,
	})

	if err := a.refreshDraftAggregates(draft); err != nil {
		return model.CriterionReview{}, err
	}
	return updated, nil
}

// classifyChange picks the highest-priority change type that applies:
// na_toggle beats status_change beats remarks_update beats general_update.
func classifyChange(prior, updated model.CriterionReview) string {
	switch {
	case prior.IsNotApplicable != updated.IsNotApplicable:
		return model.ChangeNAToggle
	case prior.Status != updated.Status:
		return model.ChangeStatus
	case prior.Notes != updated.Notes:
		return model.ChangeRemarks
	default:
		return model.ChangeGeneral
	}
}

// refreshDraftAggregates recomputes the executive summary from the
// current review rows.
func (a *Aggregator) refreshDraftAggregates(draft model.Draft) error {
	reviews, err := a.store.ReviewsForDraft(draft.ID)
	if err != nil {
		return err
	}
	draft.ExecutiveSummary = executiveSummary(draft.DocumentType, countReviews(reviews))
	draft.UpdatedAt = time.Now().UTC()
	return a.store.UpdateDraft(draft)
}

// ReviewedCriterion is a criterion review enriched with catalog metadata
// and the resolved reviewer display name.
type ReviewedCriterion struct {
	model.CriterionReview
	Name         string
	Level        string
	ReviewerName string
}

// Summary aggregates a draft's review state. Not-applicable criteria are
// excluded from the pass percentage.
type Summary struct {
	Applicable    int
	NotApplicable int
	Passed        int
	Failed        int
	Unverified    int
	PassPct       float64
}

// ReportView is the editable draft as presented to reviewers.
type ReportView struct {
	Draft         model.Draft
	Applicable    []ReviewedCriterion
	NotApplicable []ReviewedCriterion
	Summary       Summary
}

// GetForReview resolves a draft (by id when given, otherwise the latest
// draft for the job) and assembles the review view.
func (a *Aggregator) GetForReview(draftID, jobID string) (ReportView, error) {
	var draft model.Draft
	var err error
	switch {
	case draftID != "":
		draft, err = a.store.Draft(draftID)
	case jobID != "":
		draft, err = a.store.LatestDraftForJob(jobID)
	default:
		return ReportView{}, &model.ValidationError{Field: "draftId", Reason: "a draft id or job id is required"}
	}
	if err != nil {
		return ReportView{}, err
	}

	reviews, err := a.store.ReviewsForDraft(draft.ID)
	if err != nil {
		return ReportView{}, err
	}

	view := ReportView{Draft: draft}
	for _, rv := range reviews {
		rc := ReviewedCriterion{CriterionReview: rv, ReviewerName: a.displayName(rv.Reviewer)}
		if sc, ok := a.catalog.Criterion(rv.CriterionID); ok {
			rc.Name = sc.Name
			rc.Level = sc.Level
		}
		if rv.IsNotApplicable {
			view.NotApplicable = append(view.NotApplicable, rc)
		} else {
			view.Applicable = append(view.Applicable, rc)
		}
	}
	view.Summary = summarizeReviews(reviews)
	return view, nil
}

// Approve marks a draft approved. The transition is terminal: approving
// an approved draft fails, and approved drafts reject edits.
func (a *Aggregator) Approve(draftID, approver string) (model.Draft, error) {
	draft, err := a.store.Draft(draftID)
	if err != nil {
		return model.Draft{}, err
	}
	if draft.Status == model.DraftStatusApproved {
		return model.Draft{}, &model.ValidationError{Field: "status", Reason: "draft is already approved"}
	}

	now := time.Now().UTC()
	previous := draft.Status
	draft.Status = model.DraftStatusApproved
	draft.ApprovedBy = approver
	draft.ApprovedAt = &now
	draft.UpdatedAt = now
	if err := a.store.UpdateDraft(draft); err != nil {
		return model.Draft{}, fmt.Errorf("approving draft: %w", err)
	}

	a.appendLog(model.ChangeLogEntry{
		DraftID:   draftID,
		Actor:     approver,
		Field:     "status",
		Previous:  previous,
		New:       model.DraftStatusApproved,
		Type:      model.ChangeStatus,
		CreatedAt: now,
	})
	a.log.Info("draft %s approved by %s", draftID, approver)
	return draft, nil
}

// DraftSummary is one draft with its aggregate review stats.
type DraftSummary struct {
	Draft   model.Draft
	Summary Summary
}

// ListDrafts enumerates all drafts for a job, newest first, each with
// summary stats.
func (a *Aggregator) ListDrafts(jobID string) ([]DraftSummary, error) {
	drafts, err := a.store.DraftsForJob(jobID)
	if err != nil {
		return nil, err
	}
	summaries := make([]DraftSummary, 0, len(drafts))
	for _, d := range drafts {
		reviews, err := a.store.ReviewsForDraft(d.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, DraftSummary{Draft: d, Summary: summarizeReviews(reviews)})
	}
	return summaries, nil
}

// GetDraft returns one draft by id.
func (a *Aggregator) GetDraft(draftID string) (model.Draft, error) {
	return a.store.Draft(draftID)
}

// ChangeLog returns a draft's audit trail, oldest first.
func (a *Aggregator) ChangeLog(draftID string) ([]model.ChangeLogEntry, error) {
	return a.store.ChangeLogForDraft(draftID)
}

// DeleteReport cascade-deletes every draft for a job, returning the
// number of drafts removed.
func (a *Aggregator) DeleteReport(jobID string) (int, error) {
	n, err := a.store.DeleteDraftsForJob(jobID)
	if err != nil {
		return 0, err
	}
	a.log.Info("deleted %d drafts for job %s", n, jobID)
	return n, nil
}

func (a *Aggregator) displayName(reviewerID string) string {
	if a.resolver == nil || reviewerID == "" {
		return reviewerID
	}
	return a.resolver(reviewerID)
}

func (a *Aggregator) appendLog(e model.ChangeLogEntry) {
	if err := a.store.AppendChangeLog(e); err != nil {
		a.log.Warn("change-log write failed for draft %s (%s): %v", e.DraftID, e.Type, err)
	}
}

// describeReview renders a review's salient fields for change-log rows.
func describeReview(r model.CriterionReview) string {
	parts := []string{"status=" + r.Status}
	if r.IsNotApplicable {
		parts = append(parts, "na=true")
		if r.NAReason != "" {
			parts = append(parts, "reason="+r.NAReason)
		}
	}
	if r.Notes != "" {
		parts = append(parts, "notes="+r.Notes)
	}
	return strings.Join(parts, "; ")
}
