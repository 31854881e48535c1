package keys

import (
	"bytes"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/leumor/fred-reloaded-sub005/crypt"
)

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return b
}

func TestNodeCHK_FullKeyLayout(t *testing.T) {
	rk := randBytes(t, RoutingKeyLength)
	k, err := NewNodeCHK(rk, AlgoAESCTR256SHA256)
	if err != nil {
		t.Fatalf("NewNodeCHK: %v", err)
	}
	full := k.FullKey()
	if len(full) != NodeCHKFullKeyLength {
		t.Fatalf("full key is %d bytes, want %d", len(full), NodeCHKFullKeyLength)
	}
	if full[0] != 1 || full[1] != AlgoAESCTR256SHA256 {
		t.Fatalf("unexpected type word %x %x", full[0], full[1])
	}
	if !bytes.Equal(full[2:], rk) {
		t.Fatal("routing key not carried in full key")
	}
	if !bytes.Equal(k.RoutingKey(), rk) {
		t.Fatal("routing key mismatch")
	}
}

func TestNodeCHK_Validation(t *testing.T) {
	if _, err := NewNodeCHK(randBytes(t, 31), AlgoAESCTR256SHA256); !IsKind(err, KindLength) {
		t.Fatalf("short routing key: got %v, want Length error", err)
	}
	if _, err := NewNodeCHK(randBytes(t, RoutingKeyLength), 0x42); !IsKind(err, KindCrypto) {
		t.Fatalf("bad algorithm: got %v, want Crypto error", err)
	}
}

func TestNodeCHK_Immutable(t *testing.T) {
	rk := randBytes(t, RoutingKeyLength)
	k, err := NewNodeCHK(rk, AlgoAESPCFB256SHA256)
	if err != nil {
		t.Fatalf("NewNodeCHK: %v", err)
	}
	rk[0] ^= 0xFF
	if bytes.Equal(k.RoutingKey(), rk) {
		t.Fatal("key aliases the caller's routing key slice")
	}
}

func TestNodeCHK_Equal(t *testing.T) {
	rk := randBytes(t, RoutingKeyLength)
	a, _ := NewNodeCHK(rk, AlgoAESPCFB256SHA256)
	b, _ := NewNodeCHK(rk, AlgoAESPCFB256SHA256)
	c, _ := NewNodeCHK(rk, AlgoAESCTR256SHA256)
	d, _ := NewNodeCHK(randBytes(t, RoutingKeyLength), AlgoAESPCFB256SHA256)
	if !a.Equal(b) {
		t.Fatal("identical keys not equal")
	}
	if a.Equal(c) {
		t.Fatal("keys with different algorithms equal")
	}
	if a.Equal(d) {
		t.Fatal("keys with different routing keys equal")
	}
}

var (
	sskTestKeyOnce sync.Once
	sskTestKey     *crypt.PrivateKey
)

func testDSAKey(t *testing.T) *crypt.PrivateKey {
	t.Helper()
	sskTestKeyOnce.Do(func() {
		group, err := crypt.GenerateGroup(rand.Reader, 512, 160)
		if err != nil {
			t.Fatalf("GenerateGroup: %v", err)
		}
		sskTestKey, err = crypt.GenerateKey(group, rand.Reader)
		if err != nil {
			t.Fatalf("GenerateKey: %v", err)
		}
	})
	if sskTestKey == nil {
		t.Fatal("key generation failed in an earlier test")
	}
	return sskTestKey
}

func TestNodeSSK_RoutingKeyDerivation(t *testing.T) {
	priv := testDSAKey(t)
	eh := randBytes(t, EHDocnameLength)

	k, err := NewNodeSSKFromPubKey(&priv.PublicKey, eh, AlgoAESPCFB256SHA256)
	if err != nil {
		t.Fatalf("NewNodeSSKFromPubKey: %v", err)
	}
	pubHash := crypt.SHA256(priv.PublicKey.Bytes())
	if !bytes.Equal(k.PubKeyHash(), pubHash) {
		t.Fatal("fingerprint mismatch")
	}
	if !bytes.Equal(k.RoutingKey(), crypt.SHA256(eh, pubHash)) {
		t.Fatal("routing key is not SHA256(ehDocname ++ pubKeyHash)")
	}

	full := k.FullKey()
	if len(full) != NodeSSKFullKeyLength {
		t.Fatalf("full key is %d bytes, want %d", len(full), NodeSSKFullKeyLength)
	}
	if full[0] != 2 {
		t.Fatalf("unexpected base type %d", full[0])
	}
	if !bytes.Equal(full[2:2+EHDocnameLength], eh) {
		t.Fatal("ehDocname not carried in full key")
	}
	if !bytes.Equal(full[2+EHDocnameLength:], pubHash) {
		t.Fatal("pubkey hash not carried in full key")
	}
}

func TestNodeSSK_RejectsMismatchedPubKey(t *testing.T) {
	priv := testDSAKey(t)
	eh := randBytes(t, EHDocnameLength)
	wrongHash := randBytes(t, PubKeyHashLength)
	if _, err := NewNodeSSK(wrongHash, eh, &priv.PublicKey, AlgoAESPCFB256SHA256); !IsKind(err, KindCrypto) {
		t.Fatalf("got %v, want Crypto error for mismatched fingerprint", err)
	}
}

func TestNodeSSK_WithPublicKey(t *testing.T) {
	priv := testDSAKey(t)
	eh := randBytes(t, EHDocnameLength)
	pubHash := crypt.SHA256(priv.PublicKey.Bytes())

	bare, err := NewNodeSSK(pubHash, eh, nil, AlgoAESPCFB256SHA256)
	if err != nil {
		t.Fatalf("NewNodeSSK: %v", err)
	}
	if bare.PublicKey() != nil {
		t.Fatal("expected no public key")
	}
	full, err := bare.WithPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("WithPublicKey: %v", err)
	}
	if full.PublicKey() == nil {
		t.Fatal("public key not attached")
	}
	if !bare.Equal(full) {
		t.Fatal("attaching the public key changed key identity")
	}
}
