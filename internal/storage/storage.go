package storage

import (
	"github.com/s4cindia/conformance-engine/internal/model"
)

// Store defines the persistence contract for drafts, criterion reviews,
// report versions, and the change log.
type Store interface {
	// CreateDraft inserts a new draft.
	CreateDraft(d model.Draft) error

	// UpdateDraft overwrites a draft's mutable fields.
	UpdateDraft(d model.Draft) error

	// Draft returns the draft with the given id, or model.ErrNotFound.
	Draft(id string) (model.Draft, error)

	// LatestDraftForJob returns the most recently created draft for a
	// job, or model.ErrNotFound.
	LatestDraftForJob(jobID string) (model.Draft, error)

	// DraftsForJob returns all drafts for a job, newest first.
	DraftsForJob(jobID string) ([]model.Draft, error)

	// DeleteDraftsForJob removes all drafts for a job along with their
	// reviews and change-log rows, returning the number of drafts
	// removed.
	DeleteDraftsForJob(jobID string) (int, error)

	// UpsertReview creates or updates a criterion review.
	UpsertReview(r model.CriterionReview) error

	// Review returns one criterion review, or model.ErrNotFound.
	Review(draftID, criterionID string) (model.CriterionReview, error)

	// ReviewsForDraft returns all criterion reviews for a draft.
	ReviewsForDraft(draftID string) ([]model.CriterionReview, error)

	// AppendChangeLog appends one audit-trail row. Rows are never
	// updated or deleted outside a draft cascade delete.
	AppendChangeLog(e model.ChangeLogEntry) error

	// ChangeLogForDraft returns a draft's audit trail, oldest first.
	ChangeLogForDraft(draftID string) ([]model.ChangeLogEntry, error)

	// LatestVersion returns the highest-numbered version for a report
	// id, or nil when the report has no versions yet.
	LatestVersion(reportID string) (*model.Version, error)

	// InsertVersion writes an immutable version row. A duplicate
	// (reportID, number) pair returns model.ErrVersionConflict.
	InsertVersion(v model.Version) error

	// Version returns one version, or model.ErrNotFound.
	Version(reportID string, number int) (model.Version, error)

	// VersionsForReport returns all versions for a report id, ascending.
	VersionsForReport(reportID string) ([]model.Version, error)

	// DeleteVersions removes all versions for a report id. Administrative
	// use only; the normal flow never deletes history.
	DeleteVersions(reportID string) (int, error)

	// Close releases any resources held by the storage backend.
	Close() error
}
