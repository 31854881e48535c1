package store

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/leumor/fred-reloaded-sub005/block"
	"github.com/leumor/fred-reloaded-sub005/crypt"
	"github.com/leumor/fred-reloaded-sub005/keys"
)

var (
	storeKeyOnce sync.Once
	storeKey     *crypt.PrivateKey
)

func testOwnerKey(t *testing.T) *crypt.PrivateKey {
	t.Helper()
	storeKeyOnce.Do(func() {
		group, err := crypt.GenerateGroup(rand.Reader, 512, 160)
		if err != nil {
			t.Fatalf("GenerateGroup: %v", err)
		}
		storeKey, err = crypt.GenerateKey(group, rand.Reader)
		if err != nil {
			t.Fatalf("GenerateKey: %v", err)
		}
	})
	if storeKey == nil {
		t.Fatal("key generation failed in an earlier test")
	}
	return storeKey
}

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return b
}

func makeCHKBlock(t *testing.T) *block.CHKBlock {
	t.Helper()
	headers := make([]byte, block.CHKHeaderLength)
	binary.BigEndian.PutUint16(headers, crypt.HashSHA256)
	b, err := block.DeriveCHKBlock(randBytes(t, 4096), headers, keys.AlgoAESCTR256SHA256)
	if err != nil {
		t.Fatalf("DeriveCHKBlock: %v", err)
	}
	return b
}

func makeSSKBlock(t *testing.T) (*block.SSKBlock, *keys.NodeSSK) {
	t.Helper()
	priv := testOwnerKey(t)
	eh := randBytes(t, keys.EHDocnameLength)
	key, err := keys.NewNodeSSKFromPubKey(&priv.PublicKey, eh, keys.AlgoAESPCFB256SHA256)
	if err != nil {
		t.Fatalf("NewNodeSSKFromPubKey: %v", err)
	}

	data := randBytes(t, block.SSKDataLength)
	headers := make([]byte, block.SSKHeaderLength)
	binary.BigEndian.PutUint16(headers, crypt.HashSHA256)
	binary.BigEndian.PutUint16(headers[2:], uint16(keys.AlgoAESPCFB256SHA256))
	copy(headers[4:], eh)
	sigStart := block.SSKHeaderLength - block.SigRLength - block.SigSLength
	overallHash := crypt.SHA256(headers[:sigStart], crypt.SHA256(data))
	r, s, err := crypt.Sign(priv, overallHash, rand.Reader)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	r.FillBytes(headers[sigStart : sigStart+block.SigRLength])
	s.FillBytes(headers[sigStart+block.SigRLength:])

	b, err := block.NewSSKBlock(data, headers, key, true)
	if err != nil {
		t.Fatalf("NewSSKBlock: %v", err)
	}
	return b, key
}

func TestMemory_CHKRoundTrip(t *testing.T) {
	m := NewMemory()
	b := makeCHKBlock(t)
	if err := m.PutCHK(b); err != nil {
		t.Fatalf("PutCHK: %v", err)
	}
	// Idempotent.
	if err := m.PutCHK(b); err != nil {
		t.Fatalf("PutCHK again: %v", err)
	}

	key := b.NodeKey().(*keys.NodeCHK)
	got, err := m.FetchCHK(key)
	if err != nil {
		t.Fatalf("FetchCHK: %v", err)
	}
	if !got.Equal(b) {
		t.Fatal("fetched block differs from stored block")
	}

	other := makeCHKBlock(t)
	if _, err := m.FetchCHK(other.NodeKey().(*keys.NodeCHK)); !IsNotFound(err) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMemory_SSKRoundTrip(t *testing.T) {
	m := NewMemory()
	b, key := makeSSKBlock(t)
	if err := m.PutSSK(b); err != nil {
		t.Fatalf("PutSSK: %v", err)
	}
	got, err := m.FetchSSK(key)
	if err != nil {
		t.Fatalf("FetchSSK: %v", err)
	}
	if !got.Equal(b) {
		t.Fatal("fetched block differs from stored block")
	}
}

// A fetch with a hash-only key verifies against the public key stored
// alongside the block.
func TestMemory_SSKFetchWithoutPublicKey(t *testing.T) {
	m := NewMemory()
	b, key := makeSSKBlock(t)
	if err := m.PutSSK(b); err != nil {
		t.Fatalf("PutSSK: %v", err)
	}

	bare, err := keys.NewNodeSSK(key.PubKeyHash(), key.EncryptedHashedDocname(), nil, key.CryptoAlgorithm())
	if err != nil {
		t.Fatalf("NewNodeSSK: %v", err)
	}
	got, err := m.FetchSSK(bare)
	if err != nil {
		t.Fatalf("FetchSSK with bare key: %v", err)
	}
	if !got.Equal(b) {
		t.Fatal("fetched block differs from stored block")
	}
}

func TestMemory_CorruptionDetected(t *testing.T) {
	m := NewMemory()
	b := makeCHKBlock(t)
	if err := m.PutCHK(b); err != nil {
		t.Fatalf("PutCHK: %v", err)
	}

	// Flip a stored data byte behind the store's back.
	k := string(b.FullKey())
	e := m.entries[k]
	e.data = append([]byte(nil), e.data...)
	e.data[0] ^= 0x01
	m.entries[k] = e

	_, err := m.FetchCHK(b.NodeKey().(*keys.NodeCHK))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("got %v, want ErrCorrupt", err)
	}
}

func TestFallback_OrderedFetch(t *testing.T) {
	front := NewMemory()
	back := NewMemory()
	f := Fallback{Tiers: []BlockStore{front, back}}

	b := makeCHKBlock(t)
	if err := back.PutCHK(b); err != nil {
		t.Fatalf("PutCHK: %v", err)
	}

	key := b.NodeKey().(*keys.NodeCHK)
	got, err := f.FetchCHK(key)
	if err != nil {
		t.Fatalf("FetchCHK: %v", err)
	}
	if !got.Equal(b) {
		t.Fatal("fetched block differs from stored block")
	}

	// Puts land in the front tier only.
	other := makeCHKBlock(t)
	if err := f.PutCHK(other); err != nil {
		t.Fatalf("PutCHK: %v", err)
	}
	if _, err := front.FetchCHK(other.NodeKey().(*keys.NodeCHK)); err != nil {
		t.Fatalf("front tier miss after Put: %v", err)
	}
	if _, err := back.FetchCHK(other.NodeKey().(*keys.NodeCHK)); !IsNotFound(err) {
		t.Fatalf("got %v, want ErrNotFound in back tier", err)
	}

	if _, err := (Fallback{}).FetchCHK(key); !IsNotFound(err) {
		t.Fatalf("got %v, want ErrNotFound from empty Fallback", err)
	}
	if err := (Fallback{}).PutCHK(b); err == nil {
		t.Fatal("Put on empty Fallback succeeded")
	}
}

func TestFallback_SSK(t *testing.T) {
	front := NewMemory()
	back := NewMemory()
	f := Fallback{Tiers: []BlockStore{front, back}}

	b, key := makeSSKBlock(t)
	if err := back.PutSSK(b); err != nil {
		t.Fatalf("PutSSK: %v", err)
	}
	got, err := f.FetchSSK(key)
	if err != nil {
		t.Fatalf("FetchSSK: %v", err)
	}
	if !got.Equal(b) {
		t.Fatal("fetched block differs from stored block")
	}
}
