package version

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/s4cindia/conformance-engine/internal/model"
)

// maxRemarksLen bounds remark values recorded in change-log entries.
const maxRemarksLen = 100

// computeChangeLog diffs a new snapshot against its predecessor. The
// first version of a report gets a single "created" entry.
func computeChangeLog(prev *model.ReportSnapshot, next model.ReportSnapshot) []model.SnapshotChange {
	if prev == nil {
		return []model.SnapshotChange{{
			Field: "report",
			Type:  model.SnapCreated,
			New:   fmt.Sprintf("initial snapshot with %d criteria", len(next.Criteria)),
		}}
	}
	return diffSnapshots(*prev, next)
}

// diffSnapshots computes the field-by-field diff between two snapshots:
// top-level status/edition/product-info fields plus a keyed diff of the
// criteria collection.
func diffSnapshots(prev, next model.ReportSnapshot) []model.SnapshotChange {
	var changes []model.SnapshotChange

	if prev.Status != next.Status {
		changes = append(changes, model.SnapshotChange{
			Field: "status", Previous: prev.Status, New: next.Status,
			Type: model.SnapFieldChanged,
		})
	}
	if prev.Edition != next.Edition {
		changes = append(changes, model.SnapshotChange{
			Field: "edition", Previous: prev.Edition, New: next.Edition,
			Type: model.SnapFieldChanged,
		})
	}
	changes = append(changes, diffProductInfo(prev.ProductInfo, next.ProductInfo)...)
	changes = append(changes, diffCriteria(prev.Criteria, next.Criteria)...)
	return changes
}

func diffProductInfo(prev, next map[string]any) []model.SnapshotChange {
	keys := make(map[string]struct{}, len(prev)+len(next))
	for k := range prev {
		keys[k] = struct{}{}
	}
	for k := range next {
		keys[k] = struct{}{}
	}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	var changes []model.SnapshotChange
	for _, k := range ordered {
		pv, pok := prev[k]
		nv, nok := next[k]
		if pok && nok && deepEqual(pv, nv) {
			continue
		}
		changes = append(changes, model.SnapshotChange{
			Field: "productInfo." + k, Previous: pv, New: nv,
			Type: model.SnapFieldChanged,
		})
	}
	return changes
}

// diffCriteria diffs the criteria collections keyed by criterion id.
func diffCriteria(prev, next []model.SnapshotCriterion) []model.SnapshotChange {
	prevByID := make(map[string]model.SnapshotCriterion, len(prev))
	for _, c := range prev {
		prevByID[c.ID] = c
	}
	nextByID := make(map[string]model.SnapshotCriterion, len(next))
	for _, c := range next {
		nextByID[c.ID] = c
	}

	var changes []model.SnapshotChange

	for _, c := range next {
		p, existed := prevByID[c.ID]
		if !existed {
			changes = append(changes, model.SnapshotChange{
				Field: "criteria." + c.ID, New: c.ConformanceLevel,
				Type: model.SnapCriterionAdded,
			})
			continue
		}
		if p.ConformanceLevel != c.ConformanceLevel {
			changes = append(changes, model.SnapshotChange{
				Field:    "criteria." + c.ID + ".conformanceLevel",
				Previous: p.ConformanceLevel, New: c.ConformanceLevel,
				Type: model.SnapLevelChanged,
			})
		}
		if p.Remarks != c.Remarks {
			changes = append(changes, model.SnapshotChange{
				Field:    "criteria." + c.ID + ".remarks",
				Previous: truncate(p.Remarks, maxRemarksLen),
				New:      truncate(c.Remarks, maxRemarksLen),
				Type:     model.SnapRemarksChanged,
			})
		}
	}
	for _, p := range prev {
		if _, stillThere := nextByID[p.ID]; !stillThere {
			changes = append(changes, model.SnapshotChange{
				Field: "criteria." + p.ID, Previous: p.ConformanceLevel,
				Type: model.SnapCriterionGone,
			})
		}
	}
	return changes
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// criterionOfField extracts the criterion id from a criteria-scoped
// change-log field name. Criterion ids contain dots, so the id is
// recovered by stripping the known field suffixes rather than splitting.
func criterionOfField(field string) (string, bool) {
	rest, ok := strings.CutPrefix(field, "criteria.")
	if !ok {
		return "", false
	}
	for _, suffix := range []string{".conformanceLevel", ".remarks"} {
		if id, found := strings.CutSuffix(rest, suffix); found {
			return id, true
		}
	}
	return rest, true
}

// deepEqual compares snapshot values: dates by instant, arrays
// element-wise in order, maps by full key set with recursive value
// comparison. Numeric values compare by magnitude so an int written
// in-process equals the float64 that JSON decoding produces.
func deepEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if at, ok := timeValue(a); ok {
		bt, ok := timeValue(b)
		return ok && at.Equal(bt)
	}

	if an, ok := numericValue(a); ok {
		bn, ok := numericValue(b)
		return ok && an == bn
	}

	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, present := bv[k]
			if !present || !deepEqual(v, bvv) {
				return false
			}
		}
		return true
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return a == b
	}
}

// timeValue recognizes both time.Time values built in-process and
// RFC 3339 strings produced by JSON round-tripping a snapshot.
func timeValue(v any) (time.Time, bool) {
	switch tv := v.(type) {
	case time.Time:
		return tv, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, tv)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func numericValue(v any) (float64, bool) {
	switch nv := v.(type) {
	case int:
		return float64(nv), true
	case int32:
		return float64(nv), true
	case int64:
		return float64(nv), true
	case float32:
		return float64(nv), true
	case float64:
		return nv, true
	}
	return 0, false
}
