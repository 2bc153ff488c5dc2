package version

import (
	"strings"
	"testing"
	"time"

	"github.com/s4cindia/conformance-engine/internal/model"
)

func TestDiffSnapshots_CriterionAddedAndRemoved(t *testing.T) {
	prev := model.ReportSnapshot{
		Status: "supports",
		Criteria: []model.SnapshotCriterion{
			{ID: "1.1.1", ConformanceLevel: "supports"},
			{ID: "1.4.3", ConformanceLevel: "supports"},
		},
	}
	next := model.ReportSnapshot{
		Status: "supports",
		Criteria: []model.SnapshotCriterion{
			{ID: "1.1.1", ConformanceLevel: "supports"},
			{ID: "2.4.4", ConformanceLevel: "partially_supports"},
		},
	}

	changes := diffSnapshots(prev, next)
	if len(changes) != 2 {
		t.Fatalf("changes = %d, want added + removed", len(changes))
	}

	byField := make(map[string]model.SnapshotChange)
	for _, ch := range changes {
		byField[ch.Field] = ch
	}
	if ch, ok := byField["criteria.2.4.4"]; !ok || ch.Type != model.SnapCriterionAdded {
		t.Errorf("missing added entry for 2.4.4: %v", changes)
	}
	if ch, ok := byField["criteria.1.4.3"]; !ok || ch.Type != model.SnapCriterionGone {
		t.Errorf("missing removed entry for 1.4.3: %v", changes)
	}
}

func TestDiffSnapshots_SingleLevelChangeIsSingleEntry(t *testing.T) {
	prev := model.ReportSnapshot{
		Status: "supports",
		Criteria: []model.SnapshotCriterion{
			{ID: "1.1.1", ConformanceLevel: "supports"},
			{ID: "1.4.3", ConformanceLevel: "supports"},
		},
	}
	next := model.ReportSnapshot{
		Status: "supports",
		Criteria: []model.SnapshotCriterion{
			{ID: "1.1.1", ConformanceLevel: "does_not_support"},
			{ID: "1.4.3", ConformanceLevel: "supports"},
		},
	}

	changes := diffSnapshots(prev, next)
	if len(changes) != 1 {
		t.Fatalf("changes = %d, want exactly 1 for a single level change", len(changes))
	}
	if changes[0].Field != "criteria.1.1.1.conformanceLevel" || changes[0].Type != model.SnapLevelChanged {
		t.Errorf("change = %+v, want criteria-scoped level change", changes[0])
	}
}

func TestDiffSnapshots_RemarksTruncated(t *testing.T) {
	long := strings.Repeat("x", 300)
	prev := model.ReportSnapshot{
		Criteria: []model.SnapshotCriterion{{ID: "1.1.1", Remarks: "short"}},
	}
	next := model.ReportSnapshot{
		Criteria: []model.SnapshotCriterion{{ID: "1.1.1", Remarks: long}},
	}

	changes := diffSnapshots(prev, next)
	if len(changes) != 1 {
		t.Fatalf("changes = %d, want 1", len(changes))
	}
	got, ok := changes[0].New.(string)
	if !ok {
		t.Fatalf("new value is %T, want string", changes[0].New)
	}
	if len(got) != maxRemarksLen {
		t.Errorf("recorded remarks length = %d, want truncated to %d", len(got), maxRemarksLen)
	}
}

func TestDiffProductInfo_SortedKeyUnion(t *testing.T) {
	prev := model.ReportSnapshot{ProductInfo: map[string]any{"a": 1, "b": "same", "gone": true}}
	next := model.ReportSnapshot{ProductInfo: map[string]any{"a": 2, "b": "same", "new": "x"}}

	changes := diffSnapshots(prev, next)
	var fields []string
	for _, ch := range changes {
		fields = append(fields, ch.Field)
	}
	want := []string{"productInfo.a", "productInfo.gone", "productInfo.new"}
	if len(fields) != len(want) {
		t.Fatalf("fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %s, want %s (sorted key order)", i, fields[i], want[i])
		}
	}
}

func TestCriterionOfField(t *testing.T) {
	tests := []struct {
		field  string
		wantID string
		wantOK bool
	}{
		{"criteria.1.1.1.conformanceLevel", "1.1.1", true},
		{"criteria.1.4.10.remarks", "1.4.10", true},
		{"criteria.2.4.4", "2.4.4", true},
		{"status", "", false},
		{"productInfo.title", "", false},
	}
	for _, tt := range tests {
		id, ok := criterionOfField(tt.field)
		if ok != tt.wantOK || id != tt.wantID {
			t.Errorf("criterionOfField(%s) = (%q, %v), want (%q, %v)",
				tt.field, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestDeepEqual_TimeByInstant(t *testing.T) {
	instant := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	asTime := instant
	asString := instant.Format(time.RFC3339Nano)

	if !deepEqual(asTime, asString) {
		t.Error("time.Time and its RFC 3339 rendering should compare equal")
	}
	if deepEqual(asTime, instant.Add(time.Second).Format(time.RFC3339Nano)) {
		t.Error("different instants should not compare equal")
	}

	// Same instant in a different zone.
	est := instant.In(time.FixedZone("EST", -5*3600))
	if !deepEqual(asTime, est) {
		t.Error("same instant in different zones should compare equal")
	}
}

func TestDeepEqual_NumericNormalization(t *testing.T) {
	// JSON decoding turns the int written in-process into a float64.
	if !deepEqual(42, float64(42)) {
		t.Error("int 42 and float64 42 should compare equal")
	}
	if deepEqual(42, float64(43)) {
		t.Error("different magnitudes should not compare equal")
	}
}

func TestDeepEqual_Collections(t *testing.T) {
	a := map[string]any{
		"tags":  []any{"x", "y"},
		"count": 3,
		"meta":  map[string]any{"deep": true},
	}
	b := map[string]any{
		"tags":  []any{"x", "y"},
		"count": float64(3),
		"meta":  map[string]any{"deep": true},
	}
	if !deepEqual(a, b) {
		t.Error("structurally identical maps should compare equal")
	}

	reordered := map[string]any{
		"tags":  []any{"y", "x"},
		"count": 3,
		"meta":  map[string]any{"deep": true},
	}
	if deepEqual(a, reordered) {
		t.Error("array order matters")
	}

	missing := map[string]any{"tags": []any{"x", "y"}, "count": 3}
	if deepEqual(a, missing) {
		t.Error("maps with different key sets should not compare equal")
	}
}

func TestDeepEqual_Nil(t *testing.T) {
	if !deepEqual(nil, nil) {
		t.Error("nil == nil")
	}
	if deepEqual(nil, "x") || deepEqual("x", nil) {
		t.Error("nil should not equal a value")
	}
}
