// Package version persists numbered, immutable report snapshots and
// computes field-level diffs between them.
package version

import (
	"errors"
	"fmt"
	"time"

	"github.com/s4cindia/conformance-engine/internal/config"
	"github.com/s4cindia/conformance-engine/internal/logging"
	"github.com/s4cindia/conformance-engine/internal/model"
	"github.com/s4cindia/conformance-engine/internal/storage"
)

// Manager creates and queries report versions. Version numbers for a
// report id are unique and strictly increasing from 1; concurrent Create
// calls are serialized by the store's uniqueness constraint plus a bounded
// retry loop.
type Manager struct {
	store storage.Store
	cfg   config.VersioningConfig
	log   *logging.Logger
}

// NewManager creates a version manager on top of the given store.
func NewManager(store storage.Store, cfg config.VersioningConfig, log *logging.Logger) *Manager {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	return &Manager{
		store: store,
		cfg:   cfg,
		log:   log.With("version"),
	}
}

// Create writes the next version for a report: read the latest version,
// number the new one last+1 (or 1), compute its change log against the
// prior snapshot, and insert under the uniqueness constraint. A number
// collision from a racing writer triggers a retry with linear backoff;
// any other error propagates immediately.
func (m *Manager) Create(reportID string, snapshot model.ReportSnapshot, actor, reason string) (model.Version, error) {
	if reportID == "" {
		return model.Version{}, &model.ValidationError{Field: "reportId", Reason: "must not be empty"}
	}

	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxRetries+1; attempt++ {
		latest, err := m.store.LatestVersion(reportID)
		if err != nil {
			return model.Version{}, fmt.Errorf("reading latest version: %w", err)
		}

		next := 1
		var prev *model.ReportSnapshot
		if latest != nil {
			next = latest.Number + 1
			prev = &latest.Snapshot
		}

		v := model.Version{
			ReportID:  reportID,
			Number:    next,
			Snapshot:  snapshot,
			Actor:     actor,
			Reason:    reason,
			ChangeLog: computeChangeLog(prev, snapshot),
			CreatedAt: time.Now().UTC(),
		}

		err = m.store.InsertVersion(v)
		if err == nil {
			m.log.Info("created version %d for report %s (%s)", next, reportID, reason)
			return v, nil
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			return model.Version{}, err
		}

		lastErr = err
		m.log.Warn("version %d for report %s already taken, retrying (attempt %d/%d)",
			next, reportID, attempt, m.cfg.MaxRetries)
		time.Sleep(m.cfg.RetryBackoff * time.Duration(attempt))
	}
	return model.Version{}, fmt.Errorf("creating version for report %s after %d retries: %w",
		reportID, m.cfg.MaxRetries, lastErr)
}

// List returns all versions for a report id, ascending.
func (m *Manager) List(reportID string) ([]model.Version, error) {
	return m.store.VersionsForReport(reportID)
}

// Get returns one version.
func (m *Manager) Get(reportID string, number int) (model.Version, error) {
	return m.store.Version(reportID, number)
}

// DeleteAll removes every version for a report id. Administrative only;
// the normal flow never deletes history.
func (m *Manager) DeleteAll(reportID string) (int, error) {
	n, err := m.store.DeleteVersions(reportID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.log.Warn("administratively deleted %d versions for report %s", n, reportID)
	}
	return n, nil
}

// Comparison summarizes the differences between two stored versions.
type Comparison struct {
	ReportID             string
	VersionA             int
	VersionB             int
	Changes              []model.SnapshotChange
	FieldsChanged        int
	CriteriaTouched      int
	OverallStatusChanged bool
}

// Compare recomputes a diff directly between two stored snapshots.
func (m *Manager) Compare(reportID string, a, b int) (Comparison, error) {
	va, err := m.store.Version(reportID, a)
	if err != nil {
		return Comparison{}, err
	}
	vb, err := m.store.Version(reportID, b)
	if err != nil {
		return Comparison{}, err
	}

	changes := diffSnapshots(va.Snapshot, vb.Snapshot)
	cmp := Comparison{
		ReportID: reportID,
		VersionA: a,
		VersionB: b,
		Changes:  changes,
	}
	touched := make(map[string]struct{})
	for _, ch := range changes {
		if id, ok := criterionOfField(ch.Field); ok {
			touched[id] = struct{}{}
		} else {
			cmp.FieldsChanged++
		}
		if ch.Field == "status" {
			cmp.OverallStatusChanged = true
		}
	}
	cmp.CriteriaTouched = len(touched)
	return cmp, nil
}
