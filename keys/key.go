package keys

import (
	"bytes"
	"fmt"

	"github.com/leumor/fred-reloaded-sub005/crypt"
)

const (
	// RoutingKeyLength is the fixed routing key size (SHA-256 digest sized).
	RoutingKeyLength = crypt.SHA256Length
	// CryptoKeyLength is the fixed symmetric key size carried in locators.
	CryptoKeyLength = 32
	// ExtraLength is the length of the "extra" locator field. Layout:
	// version, flags, crypto algorithm, 2-byte hash identifier. Only the
	// crypto algorithm byte is interpreted here; the rest is pass-through
	// for the decode stage.
	ExtraLength = 5

	baseTypeCHK byte = 1
	baseTypeSSK byte = 2
)

// Symmetric scheme tags carried in the key type word and the extra field.
const (
	AlgoAESPCFB256SHA256 byte = 2
	AlgoAESCTR256SHA256  byte = 3
)

func validAlgorithm(algo byte) bool {
	return algo == AlgoAESPCFB256SHA256 || algo == AlgoAESCTR256SHA256
}

// Key is a node-level key: the identity a block must prove itself against.
type Key interface {
	// Type returns the 2-byte key type word: base type in the high byte,
	// crypto algorithm in the low byte.
	Type() uint16
	// RoutingKey returns the fixed-length identifier used to address the
	// block in the store. Callers must not modify it.
	RoutingKey() []byte
	// FullKey returns the complete serialized key including the type word.
	FullKey() []byte
	// Equal reports whether two keys identify the same block space.
	Equal(other Key) bool
}

// baseKey carries the routing key shared by every concrete key type.
type baseKey struct {
	routingKey []byte
}

func (k *baseKey) RoutingKey() []byte { return k.routingKey }

func checkRoutingKey(routingKey []byte) error {
	if len(routingKey) != RoutingKeyLength {
		return newError(KindLength,
			fmt.Sprintf("routing key must be %d bytes, got %d", RoutingKeyLength, len(routingKey)))
	}
	return nil
}

func routingKeysEqual(a, b Key) bool {
	return bytes.Equal(a.RoutingKey(), b.RoutingKey())
}
