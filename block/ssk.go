package block

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/leumor/fred-reloaded-sub005/crypt"
	"github.com/leumor/fred-reloaded-sub005/keys"
)

// SSK header sub-field sizes. The total length and every offset are derived
// from these, never written out as literals.
const (
	SigRLength             = 32
	SigSLength             = 32
	EHDocnameLength        = keys.EHDocnameLength
	EncryptedHeadersLength = 36

	// SSKHeaderLength is the fixed header size: 2-byte hash identifier,
	// 2-byte symmetric cipher identifier, E(H(docname)), the encrypted
	// header region, then the two signature components.
	SSKHeaderLength = 2 + 2 + EHDocnameLength + EncryptedHeadersLength + SigRLength + SigSLength

	// SSKDataLength is the fixed data payload size.
	SSKDataLength = 1024
	// SSKMaxCompressedDataLength is the usable (compressed) payload within
	// the fixed data area; the remainder carries the real length.
	SSKMaxCompressedDataLength = SSKDataLength - 2
)

// SSKBlock is a signature-addressed block. Its identity rule is a DSA
// signature by the subspace owner over the signed header prefix and the
// data hash, plus an exact match between the header's E(H(docname)) and the
// one the requesting key carries.
type SSKBlock struct {
	data    []byte
	headers []byte
	key     *keys.NodeSSK
	pubKey  *crypt.PublicKey

	hashIdentifier      uint16
	symCipherIdentifier uint16
	ehDocname           []byte
	// headersOffset is where the encrypted header region begins. It is the
	// one cursor position retained after parsing: the signed and
	// equality-relevant prefix ends at headersOffset+EncryptedHeadersLength.
	headersOffset int
}

// NewSSKBlock parses and, when verify is set, cryptographically verifies a
// received block against key. The key must carry the owner's public key.
// The docname binding check always runs, independent of verify.
func NewSSKBlock(data, headers []byte, key *keys.NodeSSK, verify bool) (*SSKBlock, error) {
	if len(headers) != SSKHeaderLength {
		return nil, newError(KindLength,
			fmt.Sprintf("headers must be %d bytes, got %d", SSKHeaderLength, len(headers)))
	}
	if len(data) != SSKDataLength {
		return nil, newError(KindLength,
			fmt.Sprintf("data must be %d bytes, got %d", SSKDataLength, len(data)))
	}

	b := &SSKBlock{
		data:    append([]byte(nil), data...),
		headers: append([]byte(nil), headers...),
		key:     key,
	}

	// Walk the header with a cursor; only headersOffset outlives parsing.
	offset := 0
	b.hashIdentifier = binary.BigEndian.Uint16(b.headers[offset:])
	offset += 2
	if b.hashIdentifier != crypt.HashSHA256 {
		return nil, newError(KindVerify, "wrong hash algorithm")
	}
	b.pubKey = key.PublicKey()
	if b.pubKey == nil {
		return nil, newError(KindVerify, "public key missing")
	}
	b.symCipherIdentifier = binary.BigEndian.Uint16(b.headers[offset:])
	offset += 2
	b.ehDocname = b.headers[offset : offset+EHDocnameLength]
	offset += EHDocnameLength
	b.headersOffset = offset
	offset += EncryptedHeadersLength

	if verify {
		r := new(big.Int).SetBytes(b.headers[offset : offset+SigRLength])
		offset += SigRLength
		s := new(big.Int).SetBytes(b.headers[offset : offset+SigSLength])

		dataHash := crypt.SHA256(b.data)
		overallHash := crypt.SHA256(b.headers[:b.headersOffset+EncryptedHeadersLength], dataHash)
		// Old peers signed a non-standard truncation of the hash; retry
		// against that form exactly once before rejecting.
		if !crypt.Verify(b.pubKey, r, s, overallHash) &&
			!crypt.VerifyTruncated(b.pubKey, r, s, overallHash) {
			return nil, newError(KindVerify, "signature verification failed")
		}
	}

	if !bytes.Equal(b.ehDocname, key.EncryptedHashedDocname()) {
		return nil, newError(KindVerify, "docname hash mismatch")
	}

	return b, nil
}

func (b *SSKBlock) NodeKey() keys.Key   { return b.key }
func (b *SSKBlock) RoutingKey() []byte  { return b.key.RoutingKey() }
func (b *SSKBlock) FullKey() []byte     { return b.key.FullKey() }
func (b *SSKBlock) PubkeyBytes() []byte { return b.pubKey.Bytes() }
func (b *SSKBlock) RawHeaders() []byte  { return b.headers }
func (b *SSKBlock) RawData() []byte     { return b.data }

func (b *SSKBlock) HashIdentifier() uint16      { return b.hashIdentifier }
func (b *SSKBlock) SymCipherIdentifier() uint16 { return b.symCipherIdentifier }
func (b *SSKBlock) HeadersOffset() int          { return b.headersOffset }

// Equal reports whether two blocks carry the same logical content. The
// trailing signature bytes are excluded: the same content re-signed with a
// different nonce is still the same block, so only the header prefix up to
// the end of the encrypted region takes part, alongside the identifiers,
// the public key and the data.
func (b *SSKBlock) Equal(o *SSKBlock) bool {
	if o == nil {
		return false
	}
	if b.hashIdentifier != o.hashIdentifier ||
		b.symCipherIdentifier != o.symCipherIdentifier ||
		b.headersOffset != o.headersOffset {
		return false
	}
	if !b.pubKey.Equal(o.pubKey) {
		return false
	}
	if !b.key.Equal(o.key) {
		return false
	}
	prefix := b.headersOffset + EncryptedHeadersLength
	return bytes.Equal(b.headers[:prefix], o.headers[:prefix]) &&
		bytes.Equal(b.data, o.data)
}
