package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/droll/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "droll.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func insertRoll(t *testing.T, s *Store, at time.Time, notation string, total int) {
	t.Helper()
	_, err := s.InsertRoll(context.Background(), model.RollRecord{
		RolledAt:  at,
		Notation:  notation,
		Seed:      42,
		Total:     total,
		Breakdown: "[3 5] = 8",
		DiceKept:  2,
	})
	if err != nil {
		t.Fatalf("failed to insert roll: %v", err)
	}
}

func TestInsertAndListRolls(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	insertRoll(t, s, base, "2d6", 8)
	insertRoll(t, s, base.Add(time.Minute), "d20", 17)

	records, err := s.ListRolls(context.Background(), model.HistoryConfig{})
	if err != nil {
		t.Fatalf("failed to list rolls: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Notation != "2d6" || records[1].Notation != "d20" {
		t.Fatalf("expected oldest-first order, got %q then %q", records[0].Notation, records[1].Notation)
	}
	rec := records[0]
	if rec.ID == "" {
		t.Fatal("expected a generated id")
	}
	if !rec.RolledAt.Equal(base) {
		t.Fatalf("expected rolled_at %v, got %v", base, rec.RolledAt)
	}
	if rec.Seed != 42 || rec.Total != 8 || rec.DiceKept != 2 || rec.DiceDropped != 0 {
		t.Fatalf("unexpected record fields: %+v", rec)
	}
	if rec.Breakdown != "[3 5] = 8" {
		t.Fatalf("unexpected breakdown: %q", rec.Breakdown)
	}
}

func TestListRollsFilters(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	insertRoll(t, s, base, "2d6", 5)
	insertRoll(t, s, base.Add(time.Minute), "d20", 17)
	insertRoll(t, s, base.Add(2*time.Minute), "2d6", 9)
	insertRoll(t, s, base.Add(3*time.Minute), "2d6", 7)

	byNotation, err := s.ListRolls(context.Background(), model.HistoryConfig{Notation: "2d6"})
	if err != nil {
		t.Fatalf("failed to list rolls: %v", err)
	}
	if len(byNotation) != 3 {
		t.Fatalf("expected 3 records for 2d6, got %d", len(byNotation))
	}

	since := base.Add(90 * time.Second)
	bySince, err := s.ListRolls(context.Background(), model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("failed to list rolls: %v", err)
	}
	if len(bySince) != 2 {
		t.Fatalf("expected 2 records since %v, got %d", since, len(bySince))
	}

	last, err := s.ListRolls(context.Background(), model.HistoryConfig{Last: 2})
	if err != nil {
		t.Fatalf("failed to list rolls: %v", err)
	}
	if len(last) != 2 {
		t.Fatalf("expected the last 2 records, got %d", len(last))
	}
	if last[0].Total != 9 || last[1].Total != 7 {
		t.Fatalf("expected the most recent totals, got %d and %d", last[0].Total, last[1].Total)
	}
}

func TestTotalsForNotation(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	for i, total := range []int{5, 9, 7} {
		insertRoll(t, s, base.Add(time.Duration(i)*time.Minute), "2d6", total)
	}
	insertRoll(t, s, base, "d20", 17)

	totals, err := s.TotalsForNotation(context.Background(), "2d6", 0)
	if err != nil {
		t.Fatalf("failed to load totals: %v", err)
	}
	if len(totals) != 3 || totals[0] != 5 || totals[1] != 9 || totals[2] != 7 {
		t.Fatalf("unexpected totals: %v", totals)
	}

	recent, err := s.TotalsForNotation(context.Background(), "2d6", 2)
	if err != nil {
		t.Fatalf("failed to load totals: %v", err)
	}
	if len(recent) != 2 || recent[0] != 9 || recent[1] != 7 {
		t.Fatalf("unexpected recent totals: %v", recent)
	}
}

func TestAggregates(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	for i, total := range []int{5, 9, 7} {
		insertRoll(t, s, base.Add(time.Duration(i)*time.Minute), "2d6", total)
	}
	insertRoll(t, s, base, "d20", 17)

	aggs, err := s.Aggregates(context.Background(), model.HistoryConfig{})
	if err != nil {
		t.Fatalf("failed to load aggregates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 aggregates, got %d", len(aggs))
	}
	first := aggs[0]
	if first.Notation != "2d6" || first.Count != 3 {
		t.Fatalf("expected 2d6 with 3 rolls first, got %+v", first)
	}
	if first.Min != 5 || first.Max != 9 || first.Mean != 7.0 {
		t.Fatalf("unexpected aggregate values: %+v", first)
	}
	if aggs[1].Notation != "d20" || aggs[1].Count != 1 {
		t.Fatalf("expected d20 with 1 roll second, got %+v", aggs[1])
	}
}
