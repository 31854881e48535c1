package keys

import "encoding/base64"

// Locator fields use a URI-safe base64 variant: the standard alphabet with
// '~' and '-' in place of '+' and '/', and no padding. Decoding is strict so
// that encode(decode(s)) == s holds for every accepted field, which the URI
// round-trip contract depends on.
var uriEncoding = base64.NewEncoding(
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789~-",
).WithPadding(base64.NoPadding).Strict()

// EncodeBase64 encodes b in the locator field encoding.
func EncodeBase64(b []byte) string {
	return uriEncoding.EncodeToString(b)
}

// DecodeBase64 decodes a locator field. Non-canonical input (padding
// characters, stray bits) is rejected.
func DecodeBase64(s string) ([]byte, error) {
	return uriEncoding.DecodeString(s)
}
