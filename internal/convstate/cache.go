package convstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"chatminder/internal/models"
	"chatminder/internal/redis"
)

const stateTTL = 30 * time.Minute

// stateCache mirrors conversation state into redis so slot filling survives
// a process restart. All failures degrade to the in-memory copy.
type stateCache struct {
	client *redis.Client
}

func newStateCache(client *redis.Client) *stateCache {
	return &stateCache{client: client}
}

func stateKey(chatID int64) string {
	return fmt.Sprintf("convstate:%d", chatID)
}

func (c *stateCache) save(st *models.ConversationState) {
	if c == nil || c.client == nil || st == nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		log.Printf("convstate marshal failed: %v", err)
		return
	}
	if err := c.client.Set(context.Background(), stateKey(st.ChatID), data, stateTTL); err != nil {
		log.Printf("convstate cache write failed: %v", err)
	}
}

func (c *stateCache) load(chatID int64) *models.ConversationState {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(context.Background(), stateKey(chatID))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("convstate cache read failed: %v", err)
		}
		return nil
	}
	var st models.ConversationState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		log.Printf("convstate cache decode failed: %v", err)
		return nil
	}
	return &st
}

func (c *stateCache) clear(chatID int64) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(context.Background(), stateKey(chatID)); err != nil && !errors.Is(err, redis.ErrCacheMiss) {
		log.Printf("convstate cache delete failed: %v", err)
	}
}
