package keys

import (
	"encoding/binary"
	"fmt"
)

// NodeCHKFullKeyLength is the serialized NodeCHK size: 2-byte type word plus
// the routing key.
const NodeCHKFullKeyLength = 2 + RoutingKeyLength

// NodeCHK is a node-level content hash key. The routing key is exactly the
// hash of the block it addresses, so it proves integrity but not authorship,
// and carries no decryption information.
type NodeCHK struct {
	baseKey
	cryptoAlgorithm byte
}

// NewNodeCHK builds a NodeCHK from a routing key and a crypto algorithm tag.
func NewNodeCHK(routingKey []byte, cryptoAlgorithm byte) (*NodeCHK, error) {
	if err := checkRoutingKey(routingKey); err != nil {
		return nil, err
	}
	if !validAlgorithm(cryptoAlgorithm) {
		return nil, newError(KindCrypto, fmt.Sprintf("invalid crypto algorithm %d", cryptoAlgorithm))
	}
	rk := make([]byte, RoutingKeyLength)
	copy(rk, routingKey)
	return &NodeCHK{baseKey: baseKey{routingKey: rk}, cryptoAlgorithm: cryptoAlgorithm}, nil
}

func (k *NodeCHK) Type() uint16 {
	return uint16(baseTypeCHK)<<8 | uint16(k.cryptoAlgorithm)
}

// CryptoAlgorithm returns the symmetric scheme tag for the decode stage.
func (k *NodeCHK) CryptoAlgorithm() byte { return k.cryptoAlgorithm }

func (k *NodeCHK) FullKey() []byte {
	buf := make([]byte, NodeCHKFullKeyLength)
	binary.BigEndian.PutUint16(buf, k.Type())
	copy(buf[2:], k.routingKey)
	return buf
}

func (k *NodeCHK) Equal(other Key) bool {
	o, ok := other.(*NodeCHK)
	if !ok {
		return false
	}
	return k.cryptoAlgorithm == o.cryptoAlgorithm && routingKeysEqual(k, o)
}
