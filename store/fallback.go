package store

import (
	"errors"

	"github.com/leumor/fred-reloaded-sub005/block"
	"github.com/leumor/fred-reloaded-sub005/keys"
)

// Fallback provides deterministic, ordered fallback across several stores,
// a cache tier in front of a slower authoritative tier being the usual
// arrangement.
//
// Fetch order is the slice order in Tiers; callers MUST supply a fixed
// order. Puts go to the first tier only.
type Fallback struct {
	Tiers []BlockStore
}

var _ BlockStore = Fallback{}

func (f Fallback) PutCHK(b *block.CHKBlock) error {
	if len(f.Tiers) == 0 {
		return errors.New("store: Fallback has no tiers")
	}
	return f.Tiers[0].PutCHK(b)
}

func (f Fallback) PutSSK(b *block.SSKBlock) error {
	if len(f.Tiers) == 0 {
		return errors.New("store: Fallback has no tiers")
	}
	return f.Tiers[0].PutSSK(b)
}

func (f Fallback) FetchCHK(key *keys.NodeCHK) (*block.CHKBlock, error) {
	for _, tier := range f.Tiers {
		b, err := tier.FetchCHK(key)
		if err == nil {
			return b, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (f Fallback) FetchSSK(key *keys.NodeSSK) (*block.SSKBlock, error) {
	for _, tier := range f.Tiers {
		b, err := tier.FetchSSK(key)
		if err == nil {
			return b, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}
