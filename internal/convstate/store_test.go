package convstate

import (
	"sync"
	"testing"

	"chatminder/internal/models"
)

func TestStoreMutateAndGet(t *testing.T) {
	s := NewStore(nil)

	if st := s.Get(1); st != nil {
		t.Fatalf("fresh store returned state: %+v", st)
	}

	s.Mutate(1, func(st *models.ConversationState) *models.ConversationState {
		if st != nil {
			t.Fatalf("expected nil state on first mutate, got %+v", st)
		}
		st = &models.ConversationState{Intent: models.IntentReminder}
		st.SetSlot(models.SlotReminderMessage, "call mom")
		return st
	})

	st := s.Get(1)
	if st == nil {
		t.Fatalf("expected state after mutate")
	}
	if st.ChatID != 1 {
		t.Fatalf("ChatID = %d, want 1", st.ChatID)
	}
	if got := st.Slot(models.SlotReminderMessage); got != "call mom" {
		t.Fatalf("slot = %q", got)
	}
	if other := s.Get(2); other != nil {
		t.Fatalf("chat 2 should have no state, got %+v", other)
	}
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	s := NewStore(nil)
	s.Mutate(1, func(*models.ConversationState) *models.ConversationState {
		st := &models.ConversationState{Intent: models.IntentReminder}
		st.SetSlot(models.SlotTimeStr, "at 05:00 PM")
		return st
	})

	snap := s.Get(1)
	snap.SetSlot(models.SlotTimeStr, "mutated")
	snap.Turns = 99

	st := s.Get(1)
	if st.Slot(models.SlotTimeStr) != "at 05:00 PM" || st.Turns != 0 {
		t.Fatalf("snapshot mutation leaked into store: %+v", st)
	}
}

func TestStoreMutateReturningNilClears(t *testing.T) {
	s := NewStore(nil)
	s.Mutate(3, func(*models.ConversationState) *models.ConversationState {
		return &models.ConversationState{Intent: models.IntentReminder}
	})
	s.Mutate(3, func(st *models.ConversationState) *models.ConversationState {
		if st == nil {
			t.Fatalf("expected existing state")
		}
		return nil
	})
	if st := s.Get(3); st != nil {
		t.Fatalf("state should be cleared, got %+v", st)
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore(nil)
	s.Mutate(4, func(*models.ConversationState) *models.ConversationState {
		return &models.ConversationState{Intent: models.IntentReminder}
	})
	s.Clear(4)
	if st := s.Get(4); st != nil {
		t.Fatalf("state should be cleared, got %+v", st)
	}
}

func TestStoreConcurrentMutateSerialized(t *testing.T) {
	s := NewStore(nil)
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Mutate(9, func(st *models.ConversationState) *models.ConversationState {
				if st == nil {
					st = &models.ConversationState{Intent: models.IntentReminder}
				}
				st.Turns++
				return st
			})
		}()
	}
	wg.Wait()

	if st := s.Get(9); st == nil || st.Turns != n {
		t.Fatalf("Turns = %+v, want %d", st, n)
	}
}
