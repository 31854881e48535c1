package block

import "github.com/leumor/fred-reloaded-sub005/keys"

// KeyBlock is a verified block bound to the key it was requested under.
type KeyBlock interface {
	// NodeKey returns the key the block is bound to.
	NodeKey() keys.Key
	// RoutingKey returns the bound key's routing key.
	RoutingKey() []byte
	// FullKey returns the bound key's full serialized form.
	FullKey() []byte
	// PubkeyBytes returns the serialized public key for signature-addressed
	// blocks, or nil for hash-addressed ones.
	PubkeyBytes() []byte
	// RawHeaders returns the block's raw header bytes.
	RawHeaders() []byte
	// RawData returns the block's raw data bytes.
	RawData() []byte
}
