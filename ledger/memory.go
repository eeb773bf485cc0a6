package ledger

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a Ledger held in a map. It is lost when the process exits.
type Memory struct {
	mu       sync.Mutex
	counters map[string]uint32
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{counters: make(map[string]uint32)}
}

// Advance implements Ledger.
func (m *Memory) Advance(ctx context.Context, publicKey []byte, counter uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := string(publicKey)
	if last, ok := m.counters[key]; ok && counter <= last {
		return fmt.Errorf("%w: counter %d, last seen %d", ErrReplay, counter, last)
	}
	m.counters[key] = counter
	return nil
}

// Last implements Ledger.
func (m *Memory) Last(ctx context.Context, publicKey []byte) (uint32, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.counters[string(publicKey)]
	return last, ok, nil
}

// Close implements Ledger.
func (m *Memory) Close() error {
	return nil
}
