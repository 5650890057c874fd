package metrics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"meal-plan-assistant/internal/database"
	"meal-plan-assistant/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestRecordAndDailyUsage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Record(ctx, ExecutionMetric{
			AgentName:        "MealScorer",
			Model:            "llama-3.3-70b-versatile",
			PromptTokens:     100,
			CompletionTokens: 20,
			LatencyMS:        250,
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	usage, err := store.GetDailyUsage(ctx, 7)
	if err != nil {
		t.Fatalf("GetDailyUsage: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("got %d days, want 1", len(usage))
	}
	day := usage[0]
	if day.TotalPrompt != 300 || day.TotalCompletion != 60 || day.TotalExecution != 3 {
		t.Errorf("unexpected totals: %+v", day)
	}
}

func TestRecordMetaSkipsEmptyUsage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordMeta(ctx, shared.AgentMeta{AgentName: "MealScorer"}); err != nil {
		t.Fatalf("RecordMeta: %v", err)
	}
	usage, err := store.GetDailyUsage(ctx, 7)
	if err != nil {
		t.Fatalf("GetDailyUsage: %v", err)
	}
	if len(usage) != 0 {
		t.Errorf("zero-usage call should not be recorded, got %+v", usage)
	}
}

func TestCleanup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := ExecutionMetric{
		AgentName:    "MealScorer",
		PromptTokens: 10,
		Timestamp:    time.Now().AddDate(0, 0, -40),
	}
	recent := ExecutionMetric{
		AgentName:    "MealScorer",
		PromptTokens: 10,
	}
	if err := store.Record(ctx, old); err != nil {
		t.Fatalf("Record old: %v", err)
	}
	if err := store.Record(ctx, recent); err != nil {
		t.Fatalf("Record recent: %v", err)
	}

	deleted, err := store.Cleanup(ctx, 30)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted %d rows, want 1", deleted)
	}
}
