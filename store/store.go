// Package store holds verified key blocks for retrieval by node key.
//
// A store never trusts its own contents: every fetch re-runs the block's
// identity check, so bit rot or a tampered backend surfaces as a
// verification failure rather than as silently wrong data.
package store

import (
	"errors"

	"github.com/leumor/fred-reloaded-sub005/block"
	"github.com/leumor/fred-reloaded-sub005/keys"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrCorrupt  = errors.New("store: block failed verification")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// BlockStore is a keyed block store.
//
// Contract:
// - Put MUST be idempotent for a given block.
// - Stored blocks MUST be immutable.
// - Fetch MUST return ErrNotFound when the key is absent, and ErrCorrupt
//   when the stored bytes no longer verify against the key.
type BlockStore interface {
	PutCHK(b *block.CHKBlock) error
	PutSSK(b *block.SSKBlock) error
	FetchCHK(key *keys.NodeCHK) (*block.CHKBlock, error)
	FetchSSK(key *keys.NodeSSK) (*block.SSKBlock, error)
}
