// Package redis is the Redis storage backend. Snapshots are plain string
// keys; the ledger is a list of JSON movements guarded by an id set.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage"
)

const DefaultPrefix = "pos"

var ErrDuplicateMovement = errors.New("redis: movement already journaled")

type Store struct {
	client *redis.Client
	prefix string
	owned  bool
}

// Dial connects to addr and pings it before returning.
func Dial(ctx context.Context, addr, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	s := New(client, prefix)
	s.owned = true
	return s, nil
}

// New wraps an existing client. Close leaves the client open.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) snapshotKey(key string) string { return s.prefix + ":snapshot:" + key }
func (s *Store) journalKey() string           { return s.prefix + ":movements" }
func (s *Store) journalIDsKey() string        { return s.prefix + ":movements:ids" }

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.snapshotKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return raw, nil
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.snapshotKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// AppendMovement pushes m to the journal list. The id set makes a second
// append of the same movement fail with ErrDuplicateMovement.
func (s *Store) AppendMovement(ctx context.Context, m core.CashMovement) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("redis: encode movement: %w", err)
	}
	added, err := s.client.SAdd(ctx, s.journalIDsKey(), m.ID).Result()
	if err != nil {
		return fmt.Errorf("redis: track movement %s: %w", m.ID, err)
	}
	if added == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateMovement, m.ID)
	}
	if err := s.client.RPush(ctx, s.journalKey(), raw).Err(); err != nil {
		s.client.SRem(ctx, s.journalIDsKey(), m.ID)
		return fmt.Errorf("redis: push movement %s: %w", m.ID, err)
	}
	return nil
}

func (s *Store) LoadMovements(ctx context.Context) ([]core.CashMovement, error) {
	items, err := s.client.LRange(ctx, s.journalKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read journal: %w", err)
	}
	out := make([]core.CashMovement, 0, len(items))
	for i, item := range items {
		var m core.CashMovement
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("redis: decode journal entry %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}
