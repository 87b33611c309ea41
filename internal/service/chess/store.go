package chess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	corechess "github.com/park285/chesspal/internal/chess"
)

var (
	ErrGameExists        = errors.New("chess game already exists")
	ErrConcurrentUpdate  = errors.New("chess game updated concurrently")
	errStoreNotAvailable = errors.New("session store not initialized")
)

// UpdateFunc receives the stored state and returns the state to persist.
// Returning an error aborts the update and leaves the stored state as it was.
type UpdateFunc func(cur *corechess.GameState) (*corechess.GameState, error)

// StoredGame pairs a game id with its state.
type StoredGame struct {
	ID    string
	State *corechess.GameState
}

// SessionStore persists game states keyed by game id.
type SessionStore interface {
	Create(ctx context.Context, id string, state *corechess.GameState) error
	// Load returns nil, nil when the game does not exist.
	Load(ctx context.Context, id string) (*corechess.GameState, error)
	Save(ctx context.Context, id string, state *corechess.GameState) error
	// Update runs fn against the current state and persists its result
	// atomically. ErrGameNotFound when the game does not exist.
	Update(ctx context.Context, id string, fn UpdateFunc) (*corechess.GameState, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]StoredGame, error)
	Close() error
}

func encodeState(state *corechess.GameState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("nil game state")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal game state: %w", err)
	}
	return raw, nil
}

func decodeState(raw []byte) (*corechess.GameState, error) {
	var state corechess.GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	return &state, nil
}

func sortStored(games []StoredGame) {
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
}

// memoryStore keeps JSON snapshots so callers never share state with the store.
type memoryStore struct {
	mu    sync.RWMutex
	games map[string][]byte
}

// NewMemoryStore returns a process-local store used when no backend is configured.
func NewMemoryStore() SessionStore {
	return &memoryStore{games: make(map[string][]byte)}
}

func (m *memoryStore) Create(ctx context.Context, id string, state *corechess.GameState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	key := strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[key]; exists {
		return ErrGameExists
	}
	m.games[key] = raw
	return nil
}

func (m *memoryStore) Load(ctx context.Context, id string) (*corechess.GameState, error) {
	m.mu.RLock()
	raw, ok := m.games[strings.TrimSpace(id)]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeState(raw)
}

func (m *memoryStore) Save(ctx context.Context, id string, state *corechess.GameState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.games[strings.TrimSpace(id)] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (*corechess.GameState, error) {
	key := strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.games[key]
	if !ok {
		return nil, ErrGameNotFound
	}
	cur, err := decodeState(raw)
	if err != nil {
		return nil, err
	}
	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	out, err := encodeState(next)
	if err != nil {
		return nil, err
	}
	m.games[key] = out
	return next, nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.games, strings.TrimSpace(id))
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) List(ctx context.Context) ([]StoredGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	games := make([]StoredGame, 0, len(m.games))
	for id, raw := range m.games {
		state, err := decodeState(raw)
		if err != nil {
			return nil, err
		}
		games = append(games, StoredGame{ID: id, State: state})
	}
	sortStored(games)
	return games, nil
}

func (m *memoryStore) Close() error { return nil }
