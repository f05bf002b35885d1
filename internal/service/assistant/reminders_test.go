package assistant

import (
	"context"
	"strings"
	"testing"
	"time"

	"chatminder/internal/models"
)

func seedReminder(t *testing.T, svc *Service, r models.Reminder) models.Reminder {
	t.Helper()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if err := svc.CreateReminder(context.Background(), &r); err != nil {
		t.Fatalf("seed reminder %s: %v", r.ID, err)
	}
	return r
}

func TestCreateReminderValidation(t *testing.T) {
	svc := NewService(openTestDB(t))
	ctx := context.Background()
	due := time.Now().UTC().Add(time.Hour)

	if err := svc.CreateReminder(ctx, nil); err == nil {
		t.Fatalf("expected error for nil reminder")
	}
	if err := svc.CreateReminder(ctx, &models.Reminder{ChatID: 1, DueAt: due}); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if err := svc.CreateReminder(ctx, &models.Reminder{ID: "r1", DueAt: due}); err == nil {
		t.Fatalf("expected error for missing chat_id")
	}
	if err := svc.CreateReminder(ctx, &models.Reminder{ID: "r1", ChatID: 1}); err == nil {
		t.Fatalf("expected error for missing due_at")
	}
}

func TestActiveRemindersOrdering(t *testing.T) {
	svc := NewService(openTestDB(t))
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	seedReminder(t, svc, models.Reminder{ID: "r-late", ChatID: 1, Message: "later", DueAt: now.Add(2 * time.Hour)})
	seedReminder(t, svc, models.Reminder{ID: "r-soon", ChatID: 1, Message: "sooner", DueAt: now.Add(10 * time.Minute)})
	seedReminder(t, svc, models.Reminder{ID: "r-other", ChatID: 2, Message: "elsewhere", DueAt: now.Add(time.Hour)})

	got, err := svc.ActiveReminders(context.Background(), 1)
	if err != nil {
		t.Fatalf("ActiveReminders: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "r-soon" || got[1].ID != "r-late" {
		t.Fatalf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestClaimDue(t *testing.T) {
	svc := NewService(openTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	seedReminder(t, svc, models.Reminder{ID: "r-due", ChatID: 1, Message: "take pills", DueAt: now.Add(-10 * time.Second)})
	seedReminder(t, svc, models.Reminder{ID: "r-exact", ChatID: 1, Message: "stand up", DueAt: now})
	seedReminder(t, svc, models.Reminder{ID: "r-future", ChatID: 1, Message: "not yet", DueAt: now.Add(time.Hour)})

	claimed, err := svc.ClaimDue(ctx, now)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("claimed %d reminders, want 2: %+v", len(claimed), claimed)
	}
	for _, r := range claimed {
		if !r.Completed {
			t.Fatalf("claimed reminder %s not marked completed", r.ID)
		}
	}

	// A second poll at the same instant must claim nothing.
	again, err := svc.ClaimDue(ctx, now)
	if err != nil {
		t.Fatalf("second ClaimDue: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second poll claimed %d reminders: %+v", len(again), again)
	}

	active, err := svc.ActiveReminders(ctx, 1)
	if err != nil {
		t.Fatalf("ActiveReminders: %v", err)
	}
	if len(active) != 1 || active[0].ID != "r-future" {
		t.Fatalf("remaining active = %+v", active)
	}
}

func TestClaimDuePartialFailureKeepsClaimed(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	seedReminder(t, svc, models.Reminder{ID: "r-a", ChatID: 1, Message: "first", DueAt: now.Add(-time.Minute)})
	seedReminder(t, svc, models.Reminder{ID: "r-b", ChatID: 1, Message: "second", DueAt: now.Add(-30 * time.Second)})

	// Make the flip fail for r-b only.
	if _, err := db.Exec(`CREATE TRIGGER block_rb BEFORE UPDATE ON reminders
		WHEN NEW.id = 'r-b' BEGIN SELECT RAISE(ABORT, 'flip blocked'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	claimed, err := svc.ClaimDue(ctx, now)
	if err == nil {
		t.Fatalf("expected claim error for r-b")
	}
	if len(claimed) != 1 || claimed[0].ID != "r-a" {
		t.Fatalf("claimed = %+v, want only r-a", claimed)
	}

	// r-b stays claimable once the store recovers.
	if _, err := db.Exec(`DROP TRIGGER block_rb`); err != nil {
		t.Fatalf("drop trigger: %v", err)
	}
	again, err := svc.ClaimDue(ctx, now)
	if err != nil {
		t.Fatalf("ClaimDue after recovery: %v", err)
	}
	if len(again) != 1 || again[0].ID != "r-b" {
		t.Fatalf("second poll claimed %+v, want only r-b", again)
	}
}

func TestFormatActiveReminders(t *testing.T) {
	svc := NewService(openTestDB(t))
	ctx := context.Background()

	out, err := svc.FormatActiveReminders(ctx, 1)
	if err != nil {
		t.Fatalf("FormatActiveReminders: %v", err)
	}
	if out != "You don't have any active reminders." {
		t.Fatalf("empty list output = %q", out)
	}

	due := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	seedReminder(t, svc, models.Reminder{ID: "r1", ChatID: 1, Message: "call mom", DueAt: due, TimeStr: "at 05:00 PM"})

	out, err = svc.FormatActiveReminders(ctx, 1)
	if err != nil {
		t.Fatalf("FormatActiveReminders: %v", err)
	}
	if !strings.HasPrefix(out, "Your active reminders:\n\n") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.Contains(out, "• call mom - at 05:00 PM") {
		t.Fatalf("missing entry: %q", out)
	}
}

func TestDuePhrase(t *testing.T) {
	due := time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC)
	if got := DuePhrase(due, "at 05:30 PM"); got != "at 05:30 PM" {
		t.Fatalf("clock phrase = %q", got)
	}
	if got := DuePhrase(due, "tomorrow at 05:30 PM"); got != "at 05:30 PM" {
		t.Fatalf("tomorrow phrase = %q", got)
	}
	if got := DuePhrase(due, "in 30 minutes"); got != "in 30 minutes" {
		t.Fatalf("relative phrase = %q", got)
	}
}
