package chess

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/park285/chesspal/internal/domain"
)

// memrepo is the in-memory ProfileRepository used when no database is configured.
type memrepo struct {
	mu       sync.RWMutex
	profiles map[string]*domain.PlayerProfile
	// recorded holds every game id counted per player; history is capped but
	// this is not.
	recorded map[string]map[string]struct{}
}

func NewMemoryRepository() ProfileRepository {
	return &memrepo{
		profiles: make(map[string]*domain.PlayerProfile),
		recorded: make(map[string]map[string]struct{}),
	}
}

func (m *memrepo) GetProfile(ctx context.Context, playerID string) (*domain.PlayerProfile, error) {
	key := strings.TrimSpace(playerID)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[key]; ok {
		return copyProfile(p), nil
	}
	return domain.NewProfile(key), nil
}

func (m *memrepo) RecordResult(ctx context.Context, playerID string, entry domain.GameHistoryEntry) (*domain.PlayerProfile, error) {
	key := strings.TrimSpace(playerID)
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[key]
	if !ok {
		p = domain.NewProfile(key)
		m.profiles[key] = p
	}
	seen, ok := m.recorded[key]
	if !ok {
		seen = make(map[string]struct{})
		m.recorded[key] = seen
	}
	if _, dup := seen[entry.GameID]; dup {
		return nil, ErrDuplicateResult
	}
	seen[entry.GameID] = struct{}{}
	p.Record(entry)
	p.UpdatedAt = entry.Date
	return copyProfile(p), nil
}

func copyProfile(p *domain.PlayerProfile) *domain.PlayerProfile {
	cp := *p
	cp.History = make([]domain.GameHistoryEntry, len(p.History))
	copy(cp.History, p.History)
	return &cp
}
