package keys

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/leumor/fred-reloaded-sub005/crypt"
)

const (
	// EHDocnameLength is the size of E(H(docname)): the encrypted hash of
	// the document name that binds an SSK block to its docname.
	EHDocnameLength = 32
	// PubKeyHashLength is the size of the public key fingerprint.
	PubKeyHashLength = crypt.SHA256Length
	// NodeSSKFullKeyLength is the serialized NodeSSK size: 2-byte type word,
	// E(H(docname)), public key hash.
	NodeSSKFullKeyLength = 2 + EHDocnameLength + PubKeyHashLength
)

// NodeSSK is a node-level signed subspace key. Blocks under it are
// authenticated by a DSA signature from the subspace owner's public key, so
// the owner can insert different content at the same routing key over time.
//
// The public key is optional: a node routing a request only needs the
// routing key, while verification requires the key to be present.
type NodeSSK struct {
	baseKey
	pubKeyHash      []byte
	ehDocname       []byte
	pubKey          *crypt.PublicKey
	cryptoAlgorithm byte
}

// NewNodeSSK builds a NodeSSK from a public key fingerprint and an
// E(H(docname)) value. pubKey may be nil; blocks cannot be verified against
// the key until it is known.
//
// The routing key is derived from the two identifiers, never supplied:
// SHA256(ehDocname ++ pubKeyHash).
func NewNodeSSK(pubKeyHash, ehDocname []byte, pubKey *crypt.PublicKey, cryptoAlgorithm byte) (*NodeSSK, error) {
	if len(pubKeyHash) != PubKeyHashLength {
		return nil, newError(KindLength,
			fmt.Sprintf("public key hash must be %d bytes, got %d", PubKeyHashLength, len(pubKeyHash)))
	}
	if len(ehDocname) != EHDocnameLength {
		return nil, newError(KindLength,
			fmt.Sprintf("encrypted docname hash must be %d bytes, got %d", EHDocnameLength, len(ehDocname)))
	}
	if !validAlgorithm(cryptoAlgorithm) {
		return nil, newError(KindCrypto, fmt.Sprintf("invalid crypto algorithm %d", cryptoAlgorithm))
	}
	if pubKey != nil && !bytes.Equal(crypt.SHA256(pubKey.Bytes()), pubKeyHash) {
		return nil, newError(KindCrypto, "public key does not match its fingerprint")
	}
	ph := make([]byte, PubKeyHashLength)
	copy(ph, pubKeyHash)
	eh := make([]byte, EHDocnameLength)
	copy(eh, ehDocname)
	return &NodeSSK{
		baseKey:         baseKey{routingKey: crypt.SHA256(eh, ph)},
		pubKeyHash:      ph,
		ehDocname:       eh,
		pubKey:          pubKey,
		cryptoAlgorithm: cryptoAlgorithm,
	}, nil
}

// NewNodeSSKFromPubKey derives the fingerprint from the public key itself.
func NewNodeSSKFromPubKey(pubKey *crypt.PublicKey, ehDocname []byte, cryptoAlgorithm byte) (*NodeSSK, error) {
	if pubKey == nil {
		return nil, newError(KindCrypto, "missing public key")
	}
	return NewNodeSSK(crypt.SHA256(pubKey.Bytes()), ehDocname, pubKey, cryptoAlgorithm)
}

func (k *NodeSSK) Type() uint16 {
	return uint16(baseTypeSSK)<<8 | uint16(k.cryptoAlgorithm)
}

// PublicKey returns the subspace owner's public key, or nil if unknown.
func (k *NodeSSK) PublicKey() *crypt.PublicKey { return k.pubKey }

// PubKeyHash returns the public key fingerprint.
func (k *NodeSSK) PubKeyHash() []byte { return k.pubKeyHash }

// EncryptedHashedDocname returns the E(H(docname)) value the key was built
// with. Callers must not modify it.
func (k *NodeSSK) EncryptedHashedDocname() []byte { return k.ehDocname }

// CryptoAlgorithm returns the symmetric scheme tag for the decode stage.
func (k *NodeSSK) CryptoAlgorithm() byte { return k.cryptoAlgorithm }

func (k *NodeSSK) FullKey() []byte {
	buf := make([]byte, NodeSSKFullKeyLength)
	binary.BigEndian.PutUint16(buf, k.Type())
	copy(buf[2:], k.ehDocname)
	copy(buf[2+EHDocnameLength:], k.pubKeyHash)
	return buf
}

// WithPublicKey returns a copy of the key carrying pubKey. It fails if the
// key does not hash to the fingerprint the key was built with.
func (k *NodeSSK) WithPublicKey(pubKey *crypt.PublicKey) (*NodeSSK, error) {
	return NewNodeSSK(k.pubKeyHash, k.ehDocname, pubKey, k.cryptoAlgorithm)
}

func (k *NodeSSK) Equal(other Key) bool {
	o, ok := other.(*NodeSSK)
	if !ok {
		return false
	}
	return k.cryptoAlgorithm == o.cryptoAlgorithm &&
		bytes.Equal(k.ehDocname, o.ehDocname) &&
		bytes.Equal(k.pubKeyHash, o.pubKeyHash)
}
