package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/s4cindia/conformance-engine/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testDraft(id, jobID string) model.Draft {
	now := time.Now().UTC()
	return model.Draft{
		ID:               id,
		JobID:            jobID,
		Edition:          "wcag2.1-aa",
		Status:           model.DraftStatusDraft,
		DocumentType:     "epub",
		FileName:         "book.epub",
		ExecutiveSummary: "summary",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestDraftRoundTrip(t *testing.T) {
	store := newTestStore(t)

	d := testDraft("d-1", "job-1")
	if err := store.CreateDraft(d); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	got, err := store.Draft("d-1")
	if err != nil {
		t.Fatalf("Draft failed: %v", err)
	}
	if got.JobID != "job-1" || got.Edition != "wcag2.1-aa" || got.Status != model.DraftStatusDraft {
		t.Errorf("draft = %+v, want stored fields back", got)
	}
	if got.ApprovedAt != nil {
		t.Errorf("ApprovedAt = %v, want nil for unapproved draft", got.ApprovedAt)
	}
}

func TestDraftNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Draft("missing")
	if !model.IsNotFound(err) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if err := store.UpdateDraft(testDraft("missing", "job-x")); !model.IsNotFound(err) {
		t.Errorf("UpdateDraft on missing draft = %v, want ErrNotFound", err)
	}
}

func TestUpdateDraft_Approval(t *testing.T) {
	store := newTestStore(t)

	d := testDraft("d-1", "job-1")
	if err := store.CreateDraft(d); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	approvedAt := time.Now().UTC().Truncate(time.Second)
	d.Status = model.DraftStatusApproved
	d.ApprovedBy = "reviewer-7"
	d.ApprovedAt = &approvedAt
	d.UpdatedAt = approvedAt
	if err := store.UpdateDraft(d); err != nil {
		t.Fatalf("UpdateDraft failed: %v", err)
	}

	got, err := store.Draft("d-1")
	if err != nil {
		t.Fatalf("Draft failed: %v", err)
	}
	if got.Status != model.DraftStatusApproved || got.ApprovedBy != "reviewer-7" {
		t.Errorf("draft = %+v, want approved by reviewer-7", got)
	}
	if got.ApprovedAt == nil || !got.ApprovedAt.Equal(approvedAt) {
		t.Errorf("ApprovedAt = %v, want %v", got.ApprovedAt, approvedAt)
	}
}

func TestLatestDraftForJob(t *testing.T) {
	store := newTestStore(t)

	older := testDraft("d-old", "job-1")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	older.UpdatedAt = older.CreatedAt
	newer := testDraft("d-new", "job-1")

	if err := store.CreateDraft(older); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	if err := store.CreateDraft(newer); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	got, err := store.LatestDraftForJob("job-1")
	if err != nil {
		t.Fatalf("LatestDraftForJob failed: %v", err)
	}
	if got.ID != "d-new" {
		t.Errorf("latest draft = %s, want d-new", got.ID)
	}

	all, err := store.DraftsForJob("job-1")
	if err != nil {
		t.Fatalf("DraftsForJob failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "d-new" {
		t.Errorf("DraftsForJob = %v, want [d-new d-old]", all)
	}

	if _, err := store.LatestDraftForJob("no-such-job"); !model.IsNotFound(err) {
		t.Errorf("error = %v, want ErrNotFound for unknown job", err)
	}
}

func TestReviewUpsert(t *testing.T) {
	store := newTestStore(t)

	r := model.CriterionReview{
		DraftID:     "d-1",
		CriterionID: "1.1.1",
		Status:      "failed",
		Method:      "automated",
		Notes:       "missing alt text",
		Confidence:  90,
		Reviewer:    "system",
		UpdatedAt:   time.Now().UTC(),
	}
	if err := store.UpsertReview(r); err != nil {
		t.Fatalf("UpsertReview failed: %v", err)
	}

	// Second upsert for the same (draft, criterion) overwrites in place.
	r.Status = "passed"
	r.IsNotApplicable = false
	r.Reviewer = "human-1"
	if err := store.UpsertReview(r); err != nil {
		t.Fatalf("UpsertReview (update) failed: %v", err)
	}

	got, err := store.Review("d-1", "1.1.1")
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if got.Status != "passed" || got.Reviewer != "human-1" {
		t.Errorf("review = %+v, want updated status and reviewer", got)
	}

	reviews, err := store.ReviewsForDraft("d-1")
	if err != nil {
		t.Fatalf("ReviewsForDraft failed: %v", err)
	}
	if len(reviews) != 1 {
		t.Errorf("reviews = %d rows, want 1 after upsert", len(reviews))
	}

	if _, err := store.Review("d-1", "9.9.9"); !model.IsNotFound(err) {
		t.Errorf("error = %v, want ErrNotFound for unknown criterion", err)
	}
}

func TestReviewNAFlagRoundTrip(t *testing.T) {
	store := newTestStore(t)

	r := model.CriterionReview{
		DraftID:         "d-1",
		CriterionID:     "1.2.2",
		Status:          "unverified",
		Method:          "manual",
		IsNotApplicable: true,
		NAReason:        "document contains no video content",
		UpdatedAt:       time.Now().UTC(),
	}
	if err := store.UpsertReview(r); err != nil {
		t.Fatalf("UpsertReview failed: %v", err)
	}

	got, err := store.Review("d-1", "1.2.2")
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if !got.IsNotApplicable || got.NAReason != "document contains no video content" {
		t.Errorf("review = %+v, want N/A flag and reason preserved", got)
	}
}

func TestChangeLogOrdering(t *testing.T) {
	store := newTestStore(t)

	for i, field := range []string{"status", "remarks", "isNotApplicable"} {
		e := model.ChangeLogEntry{
			DraftID:   "d-1",
			Actor:     "reviewer",
			Field:     field,
			Previous:  "old",
			New:       "new",
			Type:      model.ChangeGeneral,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		}
		if err := store.AppendChangeLog(e); err != nil {
			t.Fatalf("AppendChangeLog failed: %v", err)
		}
	}

	entries, err := store.ChangeLogForDraft("d-1")
	if err != nil {
		t.Fatalf("ChangeLogForDraft failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Field != "status" || entries[2].Field != "isNotApplicable" {
		t.Errorf("entries out of append order: %v", entries)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ID <= entries[i-1].ID {
			t.Errorf("entry ids not increasing: %d then %d", entries[i-1].ID, entries[i].ID)
		}
	}
}

func TestDeleteDraftsForJob_Cascades(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateDraft(testDraft("d-1", "job-1")); err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	if err := store.UpsertReview(model.CriterionReview{
		DraftID: "d-1", CriterionID: "1.1.1", Status: "passed",
		Method: "automated", UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("UpsertReview failed: %v", err)
	}
	if err := store.AppendChangeLog(model.ChangeLogEntry{
		DraftID: "d-1", Actor: "a", Field: "f", Type: model.ChangeGeneral,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("AppendChangeLog failed: %v", err)
	}

	n, err := store.DeleteDraftsForJob("job-1")
	if err != nil {
		t.Fatalf("DeleteDraftsForJob failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d drafts, want 1", n)
	}

	if _, err := store.Draft("d-1"); !model.IsNotFound(err) {
		t.Errorf("draft still present after cascade delete: %v", err)
	}
	reviews, err := store.ReviewsForDraft("d-1")
	if err != nil {
		t.Fatalf("ReviewsForDraft failed: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("reviews = %d rows, want 0 after cascade delete", len(reviews))
	}
	entries, err := store.ChangeLogForDraft("d-1")
	if err != nil {
		t.Fatalf("ChangeLogForDraft failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("change log = %d rows, want 0 after cascade delete", len(entries))
	}
}

func testVersion(reportID string, number int) model.Version {
	return model.Version{
		ReportID: reportID,
		Number:   number,
		Snapshot: model.ReportSnapshot{
			Status:  "supports",
			Edition: "wcag2.1-aa",
			Criteria: []model.SnapshotCriterion{
				{ID: "1.1.1", ConformanceLevel: "supports", Remarks: "ok"},
			},
		},
		Actor:     "tester",
		Reason:    "test",
		CreatedAt: time.Now().UTC(),
	}
}

func TestVersionRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if err := store.InsertVersion(testVersion("r-1", 1)); err != nil {
		t.Fatalf("InsertVersion failed: %v", err)
	}

	got, err := store.Version("r-1", 1)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if got.Snapshot.Status != "supports" || len(got.Snapshot.Criteria) != 1 {
		t.Errorf("snapshot = %+v, want stored snapshot back", got.Snapshot)
	}
	if got.Snapshot.Criteria[0].ID != "1.1.1" {
		t.Errorf("criterion id = %s, want 1.1.1", got.Snapshot.Criteria[0].ID)
	}

	if _, err := store.Version("r-1", 99); !model.IsNotFound(err) {
		t.Errorf("error = %v, want ErrNotFound for missing number", err)
	}
}

func TestLatestVersion(t *testing.T) {
	store := newTestStore(t)

	latest, err := store.LatestVersion("r-1")
	if err != nil {
		t.Fatalf("LatestVersion failed: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil for report with no versions", latest)
	}

	for n := 1; n <= 3; n++ {
		if err := store.InsertVersion(testVersion("r-1", n)); err != nil {
			t.Fatalf("InsertVersion %d failed: %v", n, err)
		}
	}

	latest, err = store.LatestVersion("r-1")
	if err != nil {
		t.Fatalf("LatestVersion failed: %v", err)
	}
	if latest == nil || latest.Number != 3 {
		t.Errorf("latest = %+v, want number 3", latest)
	}

	versions, err := store.VersionsForReport("r-1")
	if err != nil {
		t.Fatalf("VersionsForReport failed: %v", err)
	}
	for i, v := range versions {
		if v.Number != i+1 {
			t.Errorf("versions[%d].Number = %d, want %d", i, v.Number, i+1)
		}
	}
}

func TestInsertVersion_DuplicateConflict(t *testing.T) {
	store := newTestStore(t)

	if err := store.InsertVersion(testVersion("r-1", 1)); err != nil {
		t.Fatalf("InsertVersion failed: %v", err)
	}

	err := store.InsertVersion(testVersion("r-1", 1))
	if !errors.Is(err, model.ErrVersionConflict) {
		t.Errorf("duplicate insert error = %v, want ErrVersionConflict", err)
	}

	// Same number for a different report is fine.
	if err := store.InsertVersion(testVersion("r-2", 1)); err != nil {
		t.Errorf("InsertVersion for other report failed: %v", err)
	}
}

func TestDeleteVersions(t *testing.T) {
	store := newTestStore(t)

	for n := 1; n <= 2; n++ {
		if err := store.InsertVersion(testVersion("r-1", n)); err != nil {
			t.Fatalf("InsertVersion failed: %v", err)
		}
	}

	n, err := store.DeleteVersions("r-1")
	if err != nil {
		t.Fatalf("DeleteVersions failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	latest, err := store.LatestVersion("r-1")
	if err != nil {
		t.Fatalf("LatestVersion failed: %v", err)
	}
	if latest != nil {
		t.Errorf("latest = %+v, want nil after delete", latest)
	}
}
