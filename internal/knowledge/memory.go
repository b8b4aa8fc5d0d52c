package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultMemoryWindow is the number of exchanges remembered per session.
const DefaultMemoryWindow = 5

// Exchange is one question and its answer.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Memory keeps a bounded sliding window of exchanges per session.
type Memory interface {
	Recent(ctx context.Context, session string) ([]Exchange, error)
	Append(ctx context.Context, session string, exchange Exchange) error
}

// RedisMemory stores each session as a capped Redis list, newest first.
type RedisMemory struct {
	client *redis.Client
	window int
	ttl    time.Duration
	prefix string
}

// NewRedisMemory constructs a Redis-backed memory.
func NewRedisMemory(client *redis.Client, window int, ttl time.Duration) *RedisMemory {
	if window <= 0 {
		window = DefaultMemoryWindow
	}
	return &RedisMemory{client: client, window: window, ttl: ttl, prefix: "campus:assistant:memory:"}
}

// Recent returns up to window exchanges, oldest first.
func (m *RedisMemory) Recent(ctx context.Context, session string) ([]Exchange, error) {
	values, err := m.client.LRange(ctx, m.prefix+session, 0, int64(m.window-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read memory: %w", err)
	}

	exchanges := make([]Exchange, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		var exchange Exchange
		if err := json.Unmarshal([]byte(values[i]), &exchange); err != nil {
			continue
		}
		exchanges = append(exchanges, exchange)
	}
	return exchanges, nil
}

// Append pushes the exchange and trims the list to the window.
func (m *RedisMemory) Append(ctx context.Context, session string, exchange Exchange) error {
	payload, err := json.Marshal(exchange)
	if err != nil {
		return err
	}

	key := m.prefix + session
	pipe := m.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(m.window-1))
	if m.ttl > 0 {
		pipe.Expire(ctx, key, m.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write memory: %w", err)
	}
	return nil
}

// LocalMemory keeps sessions in process memory.
type LocalMemory struct {
	mu       sync.Mutex
	window   int
	sessions map[string][]Exchange
}

// NewLocalMemory constructs an in-process memory.
func NewLocalMemory(window int) *LocalMemory {
	if window <= 0 {
		window = DefaultMemoryWindow
	}
	return &LocalMemory{window: window, sessions: make(map[string][]Exchange)}
}

// Recent returns up to window exchanges, oldest first.
func (m *LocalMemory) Recent(_ context.Context, session string) ([]Exchange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.sessions[session]
	out := make([]Exchange, len(stored))
	copy(out, stored)
	return out, nil
}

// Append adds the exchange, dropping the oldest beyond the window.
func (m *LocalMemory) Append(_ context.Context, session string, exchange Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := append(m.sessions[session], exchange)
	if len(stored) > m.window {
		stored = stored[len(stored)-m.window:]
	}
	m.sessions[session] = stored
	return nil
}
