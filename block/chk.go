package block

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/leumor/fred-reloaded-sub005/crypt"
	"github.com/leumor/fred-reloaded-sub005/keys"
)

// CHKHeaderLength is the fixed CHK header size: a 2-byte hash identifier
// followed by 34 bytes of scheme-specific header content that is opaque at
// this layer.
const CHKHeaderLength = 36

// CHKBlock is a hash-addressed block. Its identity rule is
// routingKey == SHA256(headers ++ data).
type CHKBlock struct {
	data           []byte
	headers        []byte
	key            *keys.NodeCHK
	hashIdentifier uint16
}

// NewCHKBlock verifies data and headers against a known key and returns the
// accepted block. Used by fetchers that already know the key they asked for.
func NewCHKBlock(data, headers []byte, key *keys.NodeCHK) (*CHKBlock, error) {
	b, err := newCHKBlock(data, headers)
	if err != nil {
		return nil, err
	}
	if b.hashIdentifier != crypt.HashSHA256 {
		return nil, newError(KindVerify, "wrong hash algorithm")
	}
	if !bytes.Equal(crypt.SHA256(b.headers, b.data), key.RoutingKey()) {
		return nil, newError(KindVerify, "routing key mismatch")
	}
	b.key = key
	return b, nil
}

// DeriveCHKBlock computes the key from the received bytes instead of
// checking against one. Used when the exact key is not yet known; the
// resulting block is consistent with its key by construction.
func DeriveCHKBlock(data, headers []byte, cryptoAlgorithm byte) (*CHKBlock, error) {
	b, err := newCHKBlock(data, headers)
	if err != nil {
		return nil, err
	}
	key, err := keys.NewNodeCHK(crypt.SHA256(b.headers, b.data), cryptoAlgorithm)
	if err != nil {
		return nil, newError(KindVerify, fmt.Sprintf("derive key: %v", err))
	}
	b.key = key
	return b, nil
}

func newCHKBlock(data, headers []byte) (*CHKBlock, error) {
	if len(headers) != CHKHeaderLength {
		return nil, newError(KindLength,
			fmt.Sprintf("headers must be %d bytes, got %d", CHKHeaderLength, len(headers)))
	}
	b := &CHKBlock{
		data:    append([]byte(nil), data...),
		headers: append([]byte(nil), headers...),
	}
	b.hashIdentifier = binary.BigEndian.Uint16(b.headers)
	return b, nil
}

func (b *CHKBlock) NodeKey() keys.Key      { return b.key }
func (b *CHKBlock) RoutingKey() []byte     { return b.key.RoutingKey() }
func (b *CHKBlock) FullKey() []byte        { return b.key.FullKey() }
func (b *CHKBlock) PubkeyBytes() []byte    { return nil }
func (b *CHKBlock) RawHeaders() []byte     { return b.headers }
func (b *CHKBlock) RawData() []byte        { return b.data }
func (b *CHKBlock) HashIdentifier() uint16 { return b.hashIdentifier }

// Equal reports whether two blocks are interchangeable for caching: same
// key, same hash identifier, and byte-identical headers and data.
func (b *CHKBlock) Equal(o *CHKBlock) bool {
	if o == nil {
		return false
	}
	return b.hashIdentifier == o.hashIdentifier &&
		b.key.Equal(o.key) &&
		bytes.Equal(b.headers, o.headers) &&
		bytes.Equal(b.data, o.data)
}
