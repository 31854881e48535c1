package store

import (
	"fmt"
	"sync"

	"github.com/leumor/fred-reloaded-sub005/block"
	"github.com/leumor/fred-reloaded-sub005/crypt"
	"github.com/leumor/fred-reloaded-sub005/keys"
)

// Memory is an in-process BlockStore keyed by the full node key.
//
// Subspace blocks carry the owner's serialized public key alongside the
// block bytes, so a fetch with a hash-only key can still verify.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	headers []byte
	data    []byte
	pubkey  []byte // serialized DSA public key, SSK entries only
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

var _ BlockStore = (*Memory)(nil)

func (m *Memory) PutCHK(b *block.CHKBlock) error {
	m.put(b.FullKey(), memoryEntry{
		headers: b.RawHeaders(),
		data:    b.RawData(),
	})
	return nil
}

func (m *Memory) PutSSK(b *block.SSKBlock) error {
	m.put(b.FullKey(), memoryEntry{
		headers: b.RawHeaders(),
		data:    b.RawData(),
		pubkey:  b.PubkeyBytes(),
	})
	return nil
}

func (m *Memory) put(fullKey []byte, e memoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[string(fullKey)] = e
}

func (m *Memory) FetchCHK(key *keys.NodeCHK) (*block.CHKBlock, error) {
	e, ok := m.get(key.FullKey())
	if !ok {
		return nil, ErrNotFound
	}
	b, err := block.NewCHKBlock(e.data, e.headers, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return b, nil
}

func (m *Memory) FetchSSK(key *keys.NodeSSK) (*block.SSKBlock, error) {
	e, ok := m.get(key.FullKey())
	if !ok {
		return nil, ErrNotFound
	}
	if key.PublicKey() == nil {
		pub, err := crypt.ParsePublicKey(e.pubkey)
		if err != nil {
			return nil, fmt.Errorf("%w: stored public key: %v", ErrCorrupt, err)
		}
		withPub, err := key.WithPublicKey(pub)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		key = withPub
	}
	b, err := block.NewSSKBlock(e.data, e.headers, key, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return b, nil
}

func (m *Memory) get(fullKey []byte) (memoryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[string(fullKey)]
	return e, ok
}
