package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"chatminder/internal/models"
)

func TestWindowContextChronology(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	if _, err := svc.AppendMessage(ctx, models.Message{ChatID: 1, Author: "dana", Text: "remind me to call mom at 5pm", CreatedAt: now.Add(-5 * time.Minute)}); err != nil {
		t.Fatalf("seed user turn: %v", err)
	}
	seedReminder(t, svc, models.Reminder{
		ID: "r1", ChatID: 1, UserName: "dana", Message: "call mom",
		CreatedAt: now.Add(-4 * time.Minute), DueAt: now.Add(5 * time.Hour), TimeStr: "at 05:00 PM",
	})
	if _, err := svc.AppendMessage(ctx, models.Message{ChatID: 1, Role: models.RoleAssistant, Text: "Done!", CreatedAt: now.Add(-3 * time.Minute)}); err != nil {
		t.Fatalf("seed assistant turn: %v", err)
	}

	out := svc.WindowContext(ctx, 1, 10, now)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	want := []string{
		"Recent conversation and activity:",
		"dana: remind me to call mom at 5pm",
		"[System] Reminder set: call mom",
		"Assistant: Done!",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestWindowContextExcludesOldRecords(t *testing.T) {
	svc := NewService(openTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	if _, err := svc.AppendMessage(ctx, models.Message{ChatID: 1, Author: "dana", Text: "old news", CreatedAt: now.Add(-30 * time.Minute)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.AppendMessage(ctx, models.Message{ChatID: 1, Author: "dana", Text: "fresh", CreatedAt: now.Add(-2 * time.Minute)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out := svc.WindowContext(ctx, 1, 10, now)
	if strings.Contains(out, "old news") {
		t.Fatalf("window leaked old record:\n%s", out)
	}
	if !strings.Contains(out, "dana: fresh") {
		t.Fatalf("window missing fresh record:\n%s", out)
	}
}

func TestWindowContextEmpty(t *testing.T) {
	svc := NewService(openTestDB(t))
	if out := svc.WindowContext(context.Background(), 42, 10, time.Now().UTC()); out != NoContextSentinel {
		t.Fatalf("empty window = %q, want sentinel", out)
	}
}

func TestWindowContextStoreError(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	db.Close()
	if out := svc.WindowContext(context.Background(), 1, 10, time.Now().UTC()); out != ContextErrorSentinel {
		t.Fatalf("error window = %q, want sentinel", out)
	}
}

func TestMergeTimeline(t *testing.T) {
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	a := []Event{
		{At: base, Line: "a0"},
		{At: base.Add(2 * time.Minute), Line: "a1"},
	}
	b := []Event{
		{At: base, Line: "b0"},
		{At: base.Add(1 * time.Minute), Line: "b1"},
	}

	merged := mergeTimeline(a, b)
	got := make([]string, len(merged))
	for i, ev := range merged {
		got[i] = ev.Line
	}
	// The tied head keeps first-stream priority.
	want := []string{"a0", "b0", "b1", "a1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("merge order = %v, want %v", got, want)
		}
	}
}
