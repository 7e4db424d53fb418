package asset

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry is a thread-safe set of known assets.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]*Asset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]*Asset)}
}

// Register adds a. Registering the same asset twice is an error.
func (r *Registry) Register(a *Asset) error {
	if a == nil {
		return fmt.Errorf("asset: nil asset")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[a.Key()]; ok {
		return fmt.Errorf("asset: %s already registered", a.Key())
	}
	r.byKey[a.Key()] = a
	return nil
}

// BySymbol finds an asset by case-insensitive symbol on chainID.
func (r *Registry) BySymbol(chainID uint64, symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byKey {
		if a.ChainID == chainID && strings.EqualFold(a.Symbol, symbol) {
			return a, true
		}
	}
	return nil, false
}

// Tokens returns every ERC20 asset ordered by symbol.
func (r *Registry) Tokens() []*Asset {
	r.mu.RLock()
	out := make([]*Asset, 0, len(r.byKey))
	for _, a := range r.byKey {
		if !a.Native {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
