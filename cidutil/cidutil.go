// Package cidutil derives CIDv1 identifiers for stored blocks so they
// can be exchanged with content-addressed tooling that speaks CIDs
// rather than raw routing keys.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/leumor/fred-reloaded-sub005/block"
)

// ForBytes returns a CIDv1 string using the "raw" multicodec and a
// sha2-256 multihash over data.
func ForBytes(data []byte) string {
	c, err := cidForBytes(data)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1
		// length, this should be unreachable.
		return ""
	}
	return c.String()
}

// ForBlock returns a CIDv1 (raw + sha2-256) over a block's canonical
// byte image, headers followed by data. For CHK blocks the digest under
// the multihash is exactly the routing key.
func ForBlock(b block.KeyBlock) (cid.Cid, error) {
	image := make([]byte, 0, len(b.RawHeaders())+len(b.RawData()))
	image = append(image, b.RawHeaders()...)
	image = append(image, b.RawData()...)
	return cidForBytes(image)
}

// ForRoutingKey wraps an existing 32-byte routing key digest as a CIDv1
// without rehashing.
func ForRoutingKey(routingKey []byte) (cid.Cid, error) {
	sum, err := multihash.Encode(routingKey, multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

func cidForBytes(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}
