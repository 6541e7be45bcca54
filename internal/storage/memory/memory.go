// Package memory is the in-process storage backend. Nothing survives a
// restart unless seed files are present in the data directory.
package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage"
)

type Store struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	movements []core.CashMovement
}

func New() *Store {
	return &Store{snapshots: make(map[string][]byte)}
}

// NewFromFiles seeds the expense categories from seed_categories.txt under
// base, one category per line, '#' starting a comment.
func NewFromFiles(base string) *Store {
	s := New()
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) > 0 {
		if raw, err := json.Marshal(core.NormalizeCategories(cats)); err == nil {
			s.snapshots[storage.KeyExpenseCategories] = raw
		}
	}
	return s
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.snapshots[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) AppendMovement(_ context.Context, m core.CashMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, m)
	return nil
}

func (s *Store) LoadMovements(_ context.Context) ([]core.CashMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CashMovement(nil), s.movements...), nil
}

func (s *Store) Close() error { return nil }

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
