package database

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/meljneres/sistema-obras/internal/models"
	"github.com/meljneres/sistema-obras/internal/performance"
	"github.com/meljneres/sistema-obras/internal/report"

	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u, err := CreateUser(db, "eng", "secret", models.RoleEngineer)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// two items over three periods adding up to 300k/400k/300k
func scenarioProject(t *testing.T, db *gorm.DB, userID uint) *models.Project {
	t.Helper()
	p, err := CreateProject(db, userID, CreateProjectInput{
		ProjectFields: ProjectFields{
			Name:           "Obra Teste",
			ContractNumber: "2024/0001",
			TotalValue:     1000000,
			PlannedMonths:  3,
			NumPeriods:     3,
		},
		Items: []ItemInput{
			{Description: "Fundação", Planned: map[int]float64{1: 200000, 2: 100000}},
			{Description: "Estrutura", Planned: map[int]float64{1: 100000, 2: 300000, 3: 300000}},
		},
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	full, err := GetProject(db, p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	return full
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestCreateProject(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	p := scenarioProject(t, db, u.ID)

	if len(p.Items) != 2 {
		t.Fatalf("items = %d", len(p.Items))
	}
	if p.Items[0].Description != "Fundação" || p.Items[0].Position != 1 {
		t.Errorf("first item = %+v", p.Items[0])
	}
	if p.Items[0].PlannedValue != 300000 || p.Items[1].PlannedValue != 700000 {
		t.Errorf("item totals = %v/%v", p.Items[0].PlannedValue, p.Items[1].PlannedValue)
	}
	for _, it := range p.Items {
		if len(it.Entries) != 3 {
			t.Errorf("item %d has %d entries", it.ID, len(it.Entries))
		}
		for _, e := range it.Entries {
			if e.ActualValue != nil || e.ActualCumPct != nil {
				t.Errorf("new entry has an actual: %+v", e)
			}
		}
	}
	// Fundação: 200k, 300k, 300k of 1M
	if got := p.Items[0].Entries[1].PlannedCumPct; !near(got, 30) {
		t.Errorf("planned cum pct = %v, want 30", got)
	}

	list, err := ListProjects(db, u.ID)
	if err != nil || len(list) != 1 {
		t.Errorf("ListProjects = %d, %v", len(list), err)
	}
	if list, _ := ListProjects(db, u.ID+1); len(list) != 0 {
		t.Errorf("other owner sees %d projects", len(list))
	}
}

func TestGetProject_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := GetProject(db, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitMeasurement_Scenario(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	p := scenarioProject(t, db, u.ID)
	a, b := p.Items[0].ID, p.Items[1].ID
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := SubmitMeasurement(db, p.ID, 1, map[uint]float64{a: 200000, b: 100000}, at); err != nil {
		t.Fatalf("period 1: %v", err)
	}
	if err := SubmitMeasurement(db, p.ID, 2, map[uint]float64{a: 100000, b: 250000}, at); err != nil {
		t.Fatalf("period 2: %v", err)
	}

	totals, err := PeriodTotals(db, p.ID)
	if err != nil {
		t.Fatalf("PeriodTotals: %v", err)
	}
	if len(totals) != 3 {
		t.Fatalf("totals = %+v", totals)
	}
	if totals[2].Actual != nil {
		t.Errorf("period 3 actual = %v, want nil", *totals[2].Actual)
	}

	progress := performance.Accumulate(p.TotalValue, totals)
	wantPlanned := []float64{30, 70, 100}
	wantActual := []float64{30, 65, 65}
	wantDev := []float64{0, -5, -35}
	for i, row := range progress {
		if !near(row.PlannedCumPct, wantPlanned[i]) || !near(row.ActualCumPct, wantActual[i]) || !near(row.DeviationPct, wantDev[i]) {
			t.Errorf("period %d = %+v", row.Period, row)
		}
	}

	r := report.Build(report.Header{TotalValue: p.TotalValue}, totals, nil)
	if g := r.Rows[1].Glosa; g == nil || !near(*g, 0.0295) {
		t.Errorf("period 2 glosa = %v", g)
	}

	// stored entry percentages add up to the project figure
	var sum float64
	var entries []models.MeasurementEntry
	db.Where("project_id = ? AND period = ?", p.ID, 2).Find(&entries)
	for _, e := range entries {
		if e.ActualCumPct == nil {
			t.Fatalf("entry %d has no actual pct", e.ID)
		}
		sum += *e.ActualCumPct
	}
	if !near(sum, 65) {
		t.Errorf("sum of entry actual pcts = %v, want 65", sum)
	}
}

func TestSubmitMeasurement_Overwrite(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	p := scenarioProject(t, db, u.ID)
	a := p.Items[0].ID
	now := time.Now()

	if err := SubmitMeasurement(db, p.ID, 1, map[uint]float64{a: 1}, now); err != nil {
		t.Fatal(err)
	}
	if err := SubmitMeasurement(db, p.ID, 1, map[uint]float64{a: 150000}, now); err != nil {
		t.Fatal(err)
	}
	items, err := PeriodItems(db, p.ID, 1)
	if err != nil {
		t.Fatalf("PeriodItems: %v", err)
	}
	if items[0].ActualValue == nil || *items[0].ActualValue != 150000 {
		t.Errorf("actual = %v", items[0].ActualValue)
	}
	if items[1].ActualValue != nil {
		t.Errorf("untouched item got an actual: %v", *items[1].ActualValue)
	}
}

func TestSubmitMeasurement_ActualPercentCarriesForward(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	p := scenarioProject(t, db, u.ID)
	a, b := p.Items[0].ID, p.Items[1].ID

	if err := SubmitMeasurement(db, p.ID, 1, map[uint]float64{a: 150000}, time.Now()); err != nil {
		t.Fatal(err)
	}

	var entries []models.MeasurementEntry
	if err := db.Where("project_id = ?", p.ID).Order("item_id asc, period asc").Find(&entries).Error; err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		switch {
		case e.ItemID == a:
			if e.ActualCumPct == nil || !near(*e.ActualCumPct, 15) {
				t.Errorf("item a period %d actual pct = %v, want 15", e.Period, e.ActualCumPct)
			}
		case e.ItemID == b:
			if e.ActualCumPct != nil {
				t.Errorf("item b period %d actual pct = %v, want NULL", e.Period, *e.ActualCumPct)
			}
		}
	}
}

func TestSubmitMeasurement_Rejects(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	p := scenarioProject(t, db, u.ID)
	a := p.Items[0].ID
	now := time.Now()

	if err := SubmitMeasurement(db, p.ID, 4, map[uint]float64{a: 1}, now); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("period 4 err = %v", err)
	}
	if err := SubmitMeasurement(db, p.ID, 0, map[uint]float64{a: 1}, now); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("period 0 err = %v", err)
	}
	if err := SubmitMeasurement(db, p.ID, 1, map[uint]float64{a: 1, 9999: 1}, now); !errors.Is(err, ErrForeignItem) {
		t.Errorf("foreign item err = %v", err)
	}
	if err := SubmitMeasurement(db, 9999, 1, map[uint]float64{a: 1}, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project err = %v", err)
	}

	// the rejected batch must not leave the valid item half-written
	items, _ := PeriodItems(db, p.ID, 1)
	if items[0].ActualValue != nil {
		t.Errorf("rejected measurement was written: %v", *items[0].ActualValue)
	}
}

func TestUpdatePlannedValues(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	p := scenarioProject(t, db, u.ID)
	a := p.Items[0].ID

	if err := UpdatePlannedValues(db, p.ID, map[uint]map[int]float64{a: {3: 50000}}); err != nil {
		t.Fatalf("UpdatePlannedValues: %v", err)
	}
	got, _ := GetProject(db, p.ID)
	if got.Items[0].PlannedValue != 350000 {
		t.Errorf("item total = %v, want 350000", got.Items[0].PlannedValue)
	}

	if err := UpdatePlannedValues(db, p.ID, map[uint]map[int]float64{a: {7: 1}}); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("period 7 err = %v", err)
	}
	if err := UpdatePlannedValues(db, p.ID, map[uint]map[int]float64{9999: {1: 1}}); !errors.Is(err, ErrForeignItem) {
		t.Errorf("foreign item err = %v", err)
	}
}

func TestUpdateProject_Resize(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	p := scenarioProject(t, db, u.ID)

	in := UpdateProjectInput{
		ProjectFields: ProjectFields{
			Name:           "Obra Renomeada",
			ContractNumber: p.ContractNumber,
			TotalValue:     p.TotalValue,
			PlannedMonths:  5,
			NumPeriods:     5,
		},
		Descriptions: map[uint]string{p.Items[0].ID: "Fundações"},
	}
	if _, err := UpdateProject(db, p.ID, in); err != nil {
		t.Fatalf("grow: %v", err)
	}
	got, _ := GetProject(db, p.ID)
	if got.Name != "Obra Renomeada" || got.Items[0].Description != "Fundações" {
		t.Errorf("header not updated: %s / %s", got.Name, got.Items[0].Description)
	}
	if len(got.Items[0].Entries) != 5 {
		t.Errorf("entries after grow = %d", len(got.Items[0].Entries))
	}

	if err := SubmitMeasurement(db, p.ID, 3, map[uint]float64{p.Items[1].ID: 10}, time.Now()); err != nil {
		t.Fatal(err)
	}
	in.NumPeriods = 2
	if _, err := UpdateProject(db, p.ID, in); !errors.Is(err, ErrMeasured) {
		t.Errorf("shrink over measured period err = %v", err)
	}
	in.NumPeriods = 3
	if _, err := UpdateProject(db, p.ID, in); err != nil {
		t.Errorf("shrink to 3: %v", err)
	}
	if _, err := UpdateProject(db, 9999, in); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project err = %v", err)
	}
}

func TestWeightingFactors(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	p := scenarioProject(t, db, u.ID)

	v, err := WeightingFactor(db, p.ID, 2)
	if err != nil || v != 1 {
		t.Errorf("default factor = %v, %v", v, err)
	}
	if err := SetWeightingFactor(db, p.ID, 2, 1.5); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := SetWeightingFactor(db, p.ID, 2, 2); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _ := WeightingFactor(db, p.ID, 2); v != 2 {
		t.Errorf("factor = %v, want 2", v)
	}
	m, err := WeightingFactors(db, p.ID)
	if err != nil || len(m) != 1 || m[2] != 2 {
		t.Errorf("WeightingFactors = %v, %v", m, err)
	}
	if err := SetWeightingFactor(db, p.ID, 9, 1); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("period 9 err = %v", err)
	}
}

func TestImportProject(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)

	actual := 100.0
	p, err := ImportProject(db, u.ID, ImportInput{
		Planned: []float64{100, 200, 300, 0},
		Actual:  []*float64{&actual, nil, nil},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if p.Name != ImportedName || p.TotalValue != 300 || p.NumPeriods != 4 {
		t.Errorf("imported project = %+v", p)
	}
	totals, _ := PeriodTotals(db, p.ID)
	if totals[0].Actual == nil || *totals[0].Actual != 100 || totals[1].Actual != nil {
		t.Errorf("totals = %+v", totals)
	}

	if _, err := ImportProject(db, u.ID, ImportInput{}); err == nil {
		t.Error("empty import accepted")
	}
}

func TestSeedDemo(t *testing.T) {
	db := testDB(t)
	seedDemo(db)
	seedDemo(db)

	var count int64
	db.Model(&models.Project{}).Count(&count)
	if count != 1 {
		t.Fatalf("projects after two seeds = %d", count)
	}
	var p models.Project
	db.First(&p)
	full, _ := GetProject(db, p.ID)
	var total float64
	for _, it := range full.Items {
		total += it.PlannedValue
	}
	if !near(total, 5000000) {
		t.Errorf("seeded items add up to %v", total)
	}
}

func TestSpread(t *testing.T) {
	parts := spread(1000000, 12)
	var sum float64
	for _, v := range parts {
		sum += v
	}
	if len(parts) != 12 || !near(sum, 1000000) {
		t.Errorf("spread = %v (sum %v)", parts, sum)
	}
}

func TestAuditLogs(t *testing.T) {
	db := testDB(t)
	u := testUser(t, db)
	CreateAuditLog(db, u.ID, EntityProject, 1, "create", "x")
	CreateAuditLog(db, u.ID, EntityMeasurement, 2, "measure", "y")
	CreateAuditLog(db, 0, EntityProject, 1, "create", "anonymous is skipped")

	all, err := ListAuditLogs(db, 0, 10)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListAuditLogs = %d, %v", len(all), err)
	}
	if all[0].User.Username != "eng" {
		t.Errorf("user not preloaded: %+v", all[0].User)
	}
	one, _ := ListAuditLogs(db, 1, 10)
	if len(one) != 1 || one[0].Action != "create" {
		t.Errorf("project 1 logs = %+v", one)
	}
}
