package draft

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func filled(t *testing.T) *Draft {
	t.Helper()
	d, err := New(2, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.Name = "Construção Edifício Sede"
	d.ContractNumber = "2024/0001"
	d.TotalValue = 1000
	d.StartDate = "2024-01-01"
	d.EndDate = "2024-12-31"
	d.Items[0].Description = "Fundação"
	d.Items[1].Description = "Estrutura"
	mustSet(t, d, d.Items[0].Key, 1, 300)
	mustSet(t, d, d.Items[0].Key, 2, 100)
	mustSet(t, d, d.Items[1].Key, 2, 300)
	mustSet(t, d, d.Items[1].Key, 3, 300)
	return d
}

func mustSet(t *testing.T, d *Draft, key string, period int, v float64) {
	t.Helper()
	if err := d.Set(key, period, v); err != nil {
		t.Fatalf("Set(%s, %d): %v", key, period, err)
	}
}

func TestNew_Size(t *testing.T) {
	d, err := New(5, 12)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(d.Items) != 5 || d.NumPeriods != 12 {
		t.Errorf("got %d items x %d periods", len(d.Items), d.NumPeriods)
	}
	seen := map[string]bool{}
	for _, it := range d.Items {
		if seen[it.Key] {
			t.Errorf("duplicate item key %s", it.Key)
		}
		seen[it.Key] = true
		if it.Named() {
			t.Error("new item should carry the placeholder description")
		}
	}

	for _, sz := range [][2]int{{0, 1}, {21, 1}, {1, 0}, {1, 61}} {
		if _, err := New(sz[0], sz[1]); !errors.Is(err, ErrSize) {
			t.Errorf("New(%d, %d) error = %v, want ErrSize", sz[0], sz[1], err)
		}
	}
}

func TestSetAndTotals(t *testing.T) {
	d := filled(t)

	total, err := d.ItemTotal(d.Items[0].Key)
	if err != nil || total != 400 {
		t.Errorf("ItemTotal = %v, %v; want 400", total, err)
	}
	if got := d.GrandTotal(); got != 1000 {
		t.Errorf("GrandTotal = %v, want 1000", got)
	}

	if err := d.Set("missing", 1, 1); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("Set unknown item error = %v", err)
	}
	if err := d.Set(d.Items[0].Key, 4, 1); !errors.Is(err, ErrPeriod) {
		t.Errorf("Set period 4 error = %v", err)
	}
	if err := d.Set(d.Items[0].Key, 0, 1); !errors.Is(err, ErrPeriod) {
		t.Errorf("Set period 0 error = %v", err)
	}
}

func TestResizeKeepsValues(t *testing.T) {
	d := filled(t)
	firstKey := d.Items[0].Key

	if err := d.Resize(3, 2); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if len(d.Items) != 3 || d.NumPeriods != 2 {
		t.Fatalf("after resize: %d items x %d periods", len(d.Items), d.NumPeriods)
	}
	if d.Items[0].Key != firstKey || d.Items[0].Planned[1] != 300 {
		t.Error("existing values were lost on resize")
	}
	if _, ok := d.Items[1].Planned[3]; ok {
		t.Error("period 3 should be dropped when shrinking to 2 periods")
	}
	if d.Items[2].Named() {
		t.Error("added item should be unnamed")
	}

	if err := d.Resize(1, 2); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if len(d.Items) != 1 || d.Items[0].Key != firstKey {
		t.Error("shrinking should keep the leading items")
	}
}

func TestClearItem(t *testing.T) {
	d := filled(t)
	key := d.Items[1].Key
	if err := d.ClearItem(key); err != nil {
		t.Fatalf("ClearItem: %v", err)
	}
	if total, _ := d.ItemTotal(key); total != 0 {
		t.Errorf("cleared item total = %v", total)
	}
	if d.Items[1].Named() {
		t.Error("cleared item should be unnamed")
	}
}

func TestCheck_Valid(t *testing.T) {
	res := filled(t).Check()
	if !res.OK() {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestCheck_TotalMismatchIsWarning(t *testing.T) {
	d := filled(t)
	d.TotalValue = 1500
	res := d.Check()
	if !res.OK() {
		t.Errorf("mismatch must not block saving: %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", res.Warnings)
	}

	d.TotalValue = 1000.005
	if res := d.Check(); len(res.Warnings) != 0 {
		t.Errorf("difference within tolerance should not warn: %v", res.Warnings)
	}
}

func TestCheck_Errors(t *testing.T) {
	d := filled(t)
	d.Name = "  "
	d.ContractNumber = "2024-01"
	d.TotalValue = 0
	d.EndDate = "2023-01-01"
	d.Items[1].Description = PlaceholderDescription
	d.Items[0].Planned = map[int]float64{}

	res := d.Check()
	if res.OK() {
		t.Fatal("expected errors")
	}
	if len(res.Errors) != 6 {
		t.Errorf("expected 6 errors, got %d: %v", len(res.Errors), res.Errors)
	}
}

func TestCheck_NegativeCell(t *testing.T) {
	d := filled(t)
	mustSet(t, d, d.Items[1].Key, 1, -50)

	res := d.Check()
	if res.OK() {
		t.Fatal("a negative planned value must block saving")
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "item 2: medição 1") {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestJSONRoundTripKeepsGrid(t *testing.T) {
	d := filled(t)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Draft
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != d.ID || back.GrandTotal() != d.GrandTotal() {
		t.Errorf("draft changed across the wire: %+v", back)
	}
	if back.Items[1].Planned[3] != 300 {
		t.Errorf("keyed period values lost: %v", back.Items[1].Planned)
	}
}

func TestNormalize(t *testing.T) {
	d := &Draft{
		NumPeriods: 2,
		Items: []Item{
			{Description: "  Acabamento  ", Planned: map[int]float64{1: 10, 5: 99}},
			{Description: "Instalações"},
		},
	}
	d.Normalize()

	if d.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("id not assigned")
	}
	if d.Items[0].Key == "" || d.Items[1].Key == "" {
		t.Error("item keys not assigned")
	}
	if d.Items[0].Description != "Acabamento" {
		t.Errorf("description not trimmed: %q", d.Items[0].Description)
	}
	if _, ok := d.Items[0].Planned[5]; ok {
		t.Error("out-of-range period kept")
	}
	if d.Items[1].Planned == nil {
		t.Error("nil value map not initialized")
	}
}

func TestDates(t *testing.T) {
	d := filled(t)
	start, end, err := d.Dates()
	if err != nil || start == nil || end == nil {
		t.Fatalf("Dates = %v, %v, %v", start, end, err)
	}
	d.EndDate = ""
	if _, end, _ := d.Dates(); end != nil {
		t.Error("empty end date should be nil")
	}
	d.StartDate = "nope"
	if _, _, err := d.Dates(); err == nil {
		t.Error("invalid start date accepted")
	}
}
