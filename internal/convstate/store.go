package convstate

import (
	"sync"

	"chatminder/internal/models"
	"chatminder/internal/redis"
)

// Store keeps the in-progress conversation state for each chat. Access is
// serialized per chat id: concurrent messages from the same chat see a
// consistent read-modify-write, while unrelated chats never contend.
//
// State lives in memory; when a redis client is supplied every mutation is
// mirrored there so a restarted instance can pick up a half-filled flow.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	cache   *stateCache
}

type entry struct {
	mu    sync.Mutex
	state *models.ConversationState
}

// NewStore builds a Store. cache may be nil.
func NewStore(cache *redis.Client) *Store {
	return &Store{
		entries: make(map[int64]*entry),
		cache:   newStateCache(cache),
	}
}

func (s *Store) entryFor(chatID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[chatID]
	if !ok {
		e = &entry{}
		s.entries[chatID] = e
	}
	return e
}

// Get returns a snapshot of the chat's state, nil when no flow is active.
func (s *Store) Get(chatID int64) *models.ConversationState {
	e := s.entryFor(chatID)
	e.mu.Lock()
	defer e.mu.Unlock()
	s.hydrateLocked(chatID, e)
	return cloneState(e.state)
}

// Mutate runs fn with exclusive access to the chat's state. fn receives the
// current state (nil when no flow is active) and returns the state to keep;
// returning nil clears the flow.
func (s *Store) Mutate(chatID int64, fn func(*models.ConversationState) *models.ConversationState) {
	e := s.entryFor(chatID)
	e.mu.Lock()
	defer e.mu.Unlock()
	s.hydrateLocked(chatID, e)

	next := fn(cloneState(e.state))
	e.state = next
	if next == nil {
		s.cache.clear(chatID)
		return
	}
	next.ChatID = chatID
	s.cache.save(next)
}

// Clear drops the chat's state, ending any multi-turn flow.
func (s *Store) Clear(chatID int64) {
	e := s.entryFor(chatID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = nil
	s.cache.clear(chatID)
}

// hydrateLocked restores state from the cache after a restart. Only runs
// when memory has nothing for the chat; memory always wins otherwise.
func (s *Store) hydrateLocked(chatID int64, e *entry) {
	if e.state != nil {
		return
	}
	if st := s.cache.load(chatID); st != nil {
		e.state = st
	}
}

func cloneState(st *models.ConversationState) *models.ConversationState {
	if st == nil {
		return nil
	}
	out := *st
	if st.Slots != nil {
		out.Slots = make(map[string]string, len(st.Slots))
		for k, v := range st.Slots {
			out.Slots[k] = v
		}
	}
	return &out
}
