// Package wasm holds the pieces of the browser build that do not depend on
// syscall/js, so they can be tested natively.
package wasm

import (
	"context"
	"strings"

	"github.com/anchorageoss/haloverify/crypto"
	"github.com/anchorageoss/haloverify/keys"
)

// MemoryRootProvider provides root keys from memory (for WASM environment)
type MemoryRootProvider struct {
	roots [][]byte
}

var _ crypto.RootProvider = (*MemoryRootProvider)(nil)

// NewMemoryRootProvider parses roots in the roots file format. An empty string
// selects the built-in roots.
func NewMemoryRootProvider(roots string) (*MemoryRootProvider, error) {
	if strings.TrimSpace(roots) == "" {
		return &MemoryRootProvider{roots: keys.DefaultRoots()}, nil
	}

	parsed, err := keys.ParseRoots([]byte(roots))
	if err != nil {
		return nil, err
	}
	return &MemoryRootProvider{roots: parsed}, nil
}

// GetRoots implements crypto.RootProvider
func (m *MemoryRootProvider) GetRoots(ctx context.Context) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]byte, len(m.roots))
	for i, r := range m.roots {
		out[i] = append([]byte(nil), r...)
	}
	return out, nil
}
