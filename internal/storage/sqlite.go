package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/s4cindia/conformance-engine/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists drafts, reviews, versions, and change-log rows in a
// SQLite database with WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path,
// enables WAL mode, and creates the schema. The (report_id, version)
// uniqueness constraint on the versions table is what makes concurrent
// version creation safe.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// Enable WAL mode for concurrent reads during writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS drafts (
			id                TEXT PRIMARY KEY,
			job_id            TEXT NOT NULL,
			edition           TEXT NOT NULL,
			status            TEXT NOT NULL,
			document_type     TEXT NOT NULL,
			file_name         TEXT NOT NULL,
			executive_summary TEXT NOT NULL,
			created_at        DATETIME NOT NULL,
			updated_at        DATETIME NOT NULL,
			approved_by       TEXT NOT NULL DEFAULT '',
			approved_at       DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drafts_job ON drafts(job_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS criterion_reviews (
			draft_id          TEXT NOT NULL,
			criterion_id      TEXT NOT NULL,
			status            TEXT NOT NULL,
			method            TEXT NOT NULL,
			notes             TEXT NOT NULL,
			is_na             INTEGER NOT NULL,
			na_reason         TEXT NOT NULL,
			confidence        INTEGER NOT NULL,
			reviewer          TEXT NOT NULL,
			updated_at        DATETIME NOT NULL,
			PRIMARY KEY (draft_id, criterion_id)
		)`,
		`CREATE TABLE IF NOT EXISTS change_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			draft_id    TEXT NOT NULL,
			actor       TEXT NOT NULL,
			field       TEXT NOT NULL,
			previous    TEXT NOT NULL,
			new         TEXT NOT NULL,
			change_type TEXT NOT NULL,
			created_at  DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_changelog_draft ON change_log(draft_id, id)`,
		`CREATE TABLE IF NOT EXISTS versions (
			report_id  TEXT NOT NULL,
			version    INTEGER NOT NULL,
			snapshot   TEXT NOT NULL,
			actor      TEXT NOT NULL,
			reason     TEXT NOT NULL,
			change_log TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (report_id, version)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	// SQLite uses file-level locking; limit to one open connection to
	// avoid SQLITE_BUSY errors from concurrent writers.
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

// --- drafts ---

// CreateDraft inserts a new draft row.
func (s *SQLiteStore) CreateDraft(d model.Draft) error {
	_, err := s.db.Exec(`INSERT INTO drafts
		(id, job_id, edition, status, document_type, file_name, executive_summary,
		 created_at, updated_at, approved_by, approved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.JobID, d.Edition, d.Status, d.DocumentType, d.FileName,
		d.ExecutiveSummary, d.CreatedAt.UTC(), d.UpdatedAt.UTC(),
		d.ApprovedBy, nullableTime(d.ApprovedAt))
	if err != nil {
		return fmt.Errorf("insert draft: %w", err)
	}
	return nil
}

// UpdateDraft overwrites a draft's mutable fields.
func (s *SQLiteStore) UpdateDraft(d model.Draft) error {
	res, err := s.db.Exec(`UPDATE drafts SET
		edition = ?, status = ?, document_type = ?, file_name = ?,
		executive_summary = ?, updated_at = ?, approved_by = ?, approved_at = ?
		WHERE id = ?`,
		d.Edition, d.Status, d.DocumentType, d.FileName,
		d.ExecutiveSummary, d.UpdatedAt.UTC(), d.ApprovedBy,
		nullableTime(d.ApprovedAt), d.ID)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("draft %s: %w", d.ID, model.ErrNotFound)
	}
	return nil
}

const draftColumns = `id, job_id, edition, status, document_type, file_name,
	executive_summary, created_at, updated_at, approved_by, approved_at`

// Draft returns the draft with the given id.
func (s *SQLiteStore) Draft(id string) (model.Draft, error) {
	row := s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Draft{}, fmt.Errorf("draft %s: %w", id, model.ErrNotFound)
	}
	return d, err
}

// LatestDraftForJob returns the most recently created draft for a job.
func (s *SQLiteStore) LatestDraftForJob(jobID string) (model.Draft, error) {
	row := s.db.QueryRow(`SELECT `+draftColumns+` FROM drafts
		WHERE job_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, jobID)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Draft{}, fmt.Errorf("job %s: %w", jobID, model.ErrNotFound)
	}
	return d, err
}

// DraftsForJob returns all drafts for a job, newest first.
func (s *SQLiteStore) DraftsForJob(jobID string) ([]model.Draft, error) {
	rows, err := s.db.Query(`SELECT `+draftColumns+` FROM drafts
		WHERE job_id = ? ORDER BY created_at DESC, id DESC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []model.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// DeleteDraftsForJob cascade-deletes a job's drafts, reviews, and
// change-log rows.
func (s *SQLiteStore) DeleteDraftsForJob(jobID string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM criterion_reviews WHERE draft_id IN
		(SELECT id FROM drafts WHERE job_id = ?)`, jobID); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("delete reviews: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM change_log WHERE draft_id IN
		(SELECT id FROM drafts WHERE job_id = ?)`, jobID); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("delete change log: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM drafts WHERE job_id = ?`, jobID)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("delete drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (model.Draft, error) {
	var d model.Draft
	var created, updated time.Time
	var approvedAt sql.NullTime

	err := row.Scan(&d.ID, &d.JobID, &d.Edition, &d.Status, &d.DocumentType,
		&d.FileName, &d.ExecutiveSummary, &created, &updated,
		&d.ApprovedBy, &approvedAt)
	if err != nil {
		return model.Draft{}, err
	}
	d.CreatedAt = created
	d.UpdatedAt = updated
	if approvedAt.Valid {
		t := approvedAt.Time
		d.ApprovedAt = &t
	}
	return d, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// --- criterion reviews ---

// UpsertReview creates or updates a criterion review.
func (s *SQLiteStore) UpsertReview(r model.CriterionReview) error {
	_, err := s.db.Exec(`INSERT INTO criterion_reviews
		(draft_id, criterion_id, status, method, notes, is_na, na_reason,
		 confidence, reviewer, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(draft_id, criterion_id) DO UPDATE SET
			status = excluded.status,
			method = excluded.method,
			notes = excluded.notes,
			is_na = excluded.is_na,
			na_reason = excluded.na_reason,
			confidence = excluded.confidence,
			reviewer = excluded.reviewer,
			updated_at = excluded.updated_at`,
		r.DraftID, r.CriterionID, r.Status, r.Method, r.Notes,
		boolToInt(r.IsNotApplicable), r.NAReason, r.Confidence,
		r.Reviewer, r.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

const reviewColumns = `draft_id, criterion_id, status, method, notes, is_na,
	na_reason, confidence, reviewer, updated_at`

// Review returns one criterion review.
func (s *SQLiteStore) Review(draftID, criterionID string) (model.CriterionReview, error) {
	row := s.db.QueryRow(`SELECT `+reviewColumns+` FROM criterion_reviews
		WHERE draft_id = ? AND criterion_id = ?`, draftID, criterionID)
	r, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CriterionReview{}, fmt.Errorf("review %s/%s: %w", draftID, criterionID, model.ErrNotFound)
	}
	return r, err
}

// ReviewsForDraft returns all criterion reviews for a draft.
func (s *SQLiteStore) ReviewsForDraft(draftID string) ([]model.CriterionReview, error) {
	rows, err := s.db.Query(`SELECT `+reviewColumns+` FROM criterion_reviews
		WHERE draft_id = ? ORDER BY criterion_id`, draftID)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.CriterionReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func scanReview(row rowScanner) (model.CriterionReview, error) {
	var r model.CriterionReview
	var isNA int
	var updated time.Time

	err := row.Scan(&r.DraftID, &r.CriterionID, &r.Status, &r.Method,
		&r.Notes, &isNA, &r.NAReason, &r.Confidence, &r.Reviewer, &updated)
	if err != nil {
		return model.CriterionReview{}, err
	}
	r.IsNotApplicable = isNA != 0
	r.UpdatedAt = updated
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- change log ---

// AppendChangeLog appends one audit-trail row.
func (s *SQLiteStore) AppendChangeLog(e model.ChangeLogEntry) error {
	_, err := s.db.Exec(`INSERT INTO change_log
		(draft_id, actor, field, previous, new, change_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.DraftID, e.Actor, e.Field, e.Previous, e.New, e.Type, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("append change log: %w", err)
	}
	return nil
}

// ChangeLogForDraft returns a draft's audit trail, oldest first.
func (s *SQLiteStore) ChangeLogForDraft(draftID string) ([]model.ChangeLogEntry, error) {
	rows, err := s.db.Query(`SELECT id, draft_id, actor, field, previous, new,
		change_type, created_at FROM change_log
		WHERE draft_id = ? ORDER BY id`, draftID)
	if err != nil {
		return nil, fmt.Errorf("query change log: %w", err)
	}
	defer rows.Close()

	var entries []model.ChangeLogEntry
	for rows.Next() {
		var e model.ChangeLogEntry
		var created time.Time
		if err := rows.Scan(&e.ID, &e.DraftID, &e.Actor, &e.Field,
			&e.Previous, &e.New, &e.Type, &created); err != nil {
			return nil, fmt.Errorf("scan change log: %w", err)
		}
		e.CreatedAt = created
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- versions ---

// LatestVersion returns the highest-numbered version for a report id, or
// nil when the report has no versions.
func (s *SQLiteStore) LatestVersion(reportID string) (*model.Version, error) {
	row := s.db.QueryRow(`SELECT report_id, version, snapshot, actor, reason,
		change_log, created_at FROM versions
		WHERE report_id = ? ORDER BY version DESC LIMIT 1`, reportID)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// InsertVersion writes an immutable version row. A duplicate
// (reportID, number) pair returns model.ErrVersionConflict.
func (s *SQLiteStore) InsertVersion(v model.Version) error {
	snapshot, err := json.Marshal(v.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	changeLog, err := json.Marshal(v.ChangeLog)
	if err != nil {
		return fmt.Errorf("marshal change log: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO versions
		(report_id, version, snapshot, actor, reason, change_log, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ReportID, v.Number, string(snapshot), v.Actor, v.Reason,
		string(changeLog), v.CreatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("version %d for report %s: %w", v.Number, v.ReportID, model.ErrVersionConflict)
		}
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

// Version returns one version.
func (s *SQLiteStore) Version(reportID string, number int) (model.Version, error) {
	row := s.db.QueryRow(`SELECT report_id, version, snapshot, actor, reason,
		change_log, created_at FROM versions
		WHERE report_id = ? AND version = ?`, reportID, number)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Version{}, fmt.Errorf("version %d for report %s: %w", number, reportID, model.ErrNotFound)
	}
	return v, err
}

// VersionsForReport returns all versions for a report id, ascending.
func (s *SQLiteStore) VersionsForReport(reportID string) ([]model.Version, error) {
	rows, err := s.db.Query(`SELECT report_id, version, snapshot, actor, reason,
		change_log, created_at FROM versions
		WHERE report_id = ? ORDER BY version`, reportID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var versions []model.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// DeleteVersions removes all versions for a report id.
func (s *SQLiteStore) DeleteVersions(reportID string) (int, error) {
	res, err := s.db.Exec(`DELETE FROM versions WHERE report_id = ?`, reportID)
	if err != nil {
		return 0, fmt.Errorf("delete versions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanVersion(row rowScanner) (model.Version, error) {
	var v model.Version
	var snapshot, changeLog string
	var created time.Time

	err := row.Scan(&v.ReportID, &v.Number, &snapshot, &v.Actor, &v.Reason,
		&changeLog, &created)
	if err != nil {
		return model.Version{}, err
	}
	if err := json.Unmarshal([]byte(snapshot), &v.Snapshot); err != nil {
		return model.Version{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(changeLog), &v.ChangeLog); err != nil {
		return model.Version{}, fmt.Errorf("unmarshal change log: %w", err)
	}
	v.CreatedAt = created
	return v, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
