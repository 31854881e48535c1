package keys

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/leumor/fred-reloaded-sub005/crypt"
)

// KeyType names one of the four locator families.
type KeyType string

const (
	// USK is an updatable subspace key: a versioned layer over an SSK.
	USK KeyType = "USK"
	// SSK is a signed subspace key.
	SSK KeyType = "SSK"
	// KSK is a keyword-signed key: no embedded key material, everything is
	// derived from a human-chosen string.
	KSK KeyType = "KSK"
	// CHK is a content hash key.
	CHK KeyType = "CHK"
)

func validKeyType(t KeyType) bool {
	switch t {
	case USK, SSK, KSK, CHK:
		return true
	}
	return false
}

// KeyMaterial is the decoded key section of a locator. Extra is opaque
// pass-through data for the decode stage except for the crypto algorithm
// byte consumed by NodeKey.
type KeyMaterial struct {
	RoutingKey []byte
	CryptoKey  []byte
	Extra      []byte
}

// URI is a parsed locator. It is immutable: accessors hand out copies of
// mutable state.
//
// When the key section of the locator is absent or not a full
// routing,crypto,extra triple, Keys is nil and the raw text joins the meta
// strings instead, so the original locator can still be rendered.
type URI struct {
	keyType     KeyType
	keys        *KeyMaterial
	metaStrings []string
}

// Accepted scheme prefixes: an optional http(s) host part, an optional
// ext+/web+ handler tag, then one of the scheme names. Case-sensitive on the
// scheme token, permissive on the host.
var schemePrefix = regexp.MustCompile(`^(https?://[^/]+/+)?((ext|web)\+)?(freenet|hyphanet|hypha):`)

// ParseURI parses a locator string, trimming surrounding whitespace first.
func ParseURI(s string) (*URI, error) {
	return parseURI(s, true)
}

// ParseURINoTrim parses a locator string without trimming whitespace.
func ParseURINoTrim(s string) (*URI, error) {
	return parseURI(s, false)
}

func parseURI(s string, trim bool) (*URI, error) {
	if trim {
		s = strings.TrimSpace(s)
	}

	// Drop everything from the first literal '?' on. An escaped '?' (%3F)
	// survives because escape decoding happens afterwards.
	if q := strings.IndexByte(s, '?'); q >= 0 {
		s = s[:q]
	}

	// A locator with no '@' or no '/' may be an escaped form of one; decode
	// before giving up on the grammar.
	hasAt := strings.Contains(s, "@")
	hasSlash := strings.Contains(s, "/")
	if !hasAt || !hasSlash {
		if dec, err := url.PathUnescape(s); err == nil {
			s = dec
		} else if !hasAt && !hasSlash {
			return nil, wrapError(KindMalformedURI, "invalid URI: malformed escape sequence", err)
		}
	}

	if m := schemePrefix.FindStringIndex(s); m != nil {
		s = s[m[1]:]
	}

	at := strings.IndexByte(s, '@')
	if at < 0 {
		return nil, newError(KindMalformedURI, "invalid URI: no @")
	}
	keyType := KeyType(strings.ToUpper(s[:at]))
	if !validKeyType(keyType) {
		return nil, newError(KindMalformedURI, fmt.Sprintf("invalid URI: invalid key type %q", s[:at]))
	}

	rest := s[at+1:]
	keyPart := rest
	metaPart := ""
	slash := strings.IndexByte(rest, '/')
	if slash >= 0 {
		keyPart = rest[:slash]
		// Keep the separating slash: a run of two or more slashes here
		// means a deliberately empty first segment.
		metaPart = rest[slash:]
	}

	keys, err := parseKeyMaterial(keyPart)
	if err != nil {
		return nil, err
	}

	var metas []string
	if keys == nil && (slash >= 0 || keyPart != "") {
		// Not a key triple: the raw text is path material (the KSK keyword,
		// or the unparseable key section of a partially specified locator).
		metas = append(metas, keyPart)
	}
	metas = append(metas, parseMetaStrings(metaPart)...)

	return &URI{keyType: keyType, keys: keys, metaStrings: metas}, nil
}

// parseKeyMaterial decodes the comma-separated key section. The structured
// triple is only accepted when all three fields are present and non-empty;
// anything else yields nil without failing the parse.
func parseKeyMaterial(keyPart string) (*KeyMaterial, error) {
	fields := strings.SplitN(keyPart, ",", 3)
	if len(fields) < 3 || fields[0] == "" || fields[1] == "" || fields[2] == "" {
		return nil, nil
	}
	routingKey, err := DecodeBase64(fields[0])
	if err != nil {
		return nil, wrapError(KindMalformedURI, "invalid URI: bad routing key base64", err)
	}
	cryptoKey, err := DecodeBase64(fields[1])
	if err != nil {
		return nil, wrapError(KindMalformedURI, "invalid URI: bad crypto key base64", err)
	}
	extra, err := DecodeBase64(fields[2])
	if err != nil {
		return nil, wrapError(KindMalformedURI, "invalid URI: bad extra base64", err)
	}
	return &KeyMaterial{RoutingKey: routingKey, CryptoKey: cryptoKey, Extra: extra}, nil
}

// parseMetaStrings splits a meta path into ordered segments. The leading run
// of slashes is consumed; a run of two or more records one deliberately
// empty segment. A trailing slash does not produce a trailing empty segment.
func parseMetaStrings(path string) []string {
	if path == "" {
		return nil
	}
	n := 0
	for n < len(path) && path[n] == '/' {
		n++
	}
	path = path[n:]
	var metas []string
	if n >= 2 {
		metas = append(metas, "")
	}
	if path == "" {
		return metas
	}
	segs := strings.Split(path, "/")
	if segs[len(segs)-1] == "" {
		segs = segs[:len(segs)-1]
	}
	return append(metas, segs...)
}

// NewURI builds a locator from explicit fields. Key material is only
// retained when all three fields are non-empty, mirroring the parser.
func NewURI(keyType KeyType, routingKey, cryptoKey, extra []byte, metaStrings []string) (*URI, error) {
	if !validKeyType(keyType) {
		return nil, newError(KindMalformedURI, fmt.Sprintf("invalid key type %q", string(keyType)))
	}
	u := &URI{keyType: keyType}
	if len(routingKey) > 0 && len(cryptoKey) > 0 && len(extra) > 0 {
		u.keys = &KeyMaterial{
			RoutingKey: append([]byte(nil), routingKey...),
			CryptoKey:  append([]byte(nil), cryptoKey...),
			Extra:      append([]byte(nil), extra...),
		}
	}
	u.metaStrings = append([]string(nil), metaStrings...)
	return u, nil
}

// KeyType returns the locator family.
func (u *URI) KeyType() KeyType { return u.keyType }

// HasKeyMaterial reports whether the locator carried a full key triple.
func (u *URI) HasKeyMaterial() bool { return u.keys != nil }

// KeyMaterial returns a copy of the decoded key triple, or nil.
func (u *URI) KeyMaterial() *KeyMaterial {
	if u.keys == nil {
		return nil
	}
	return &KeyMaterial{
		RoutingKey: append([]byte(nil), u.keys.RoutingKey...),
		CryptoKey:  append([]byte(nil), u.keys.CryptoKey...),
		Extra:      append([]byte(nil), u.keys.Extra...),
	}
}

// MetaStrings returns a copy of the ordered path segments.
func (u *URI) MetaStrings() []string {
	return append([]string(nil), u.metaStrings...)
}

// String renders the locator. For any parsed input that needed no escape
// decoding, the output is byte-identical to that input after scheme-prefix
// and query-suffix stripping.
func (u *URI) String() string {
	var b strings.Builder
	b.WriteString(string(u.keyType))
	b.WriteByte('@')
	if u.keys != nil {
		b.WriteString(EncodeBase64(u.keys.RoutingKey))
		b.WriteByte(',')
		b.WriteString(EncodeBase64(u.keys.CryptoKey))
		b.WriteByte(',')
		b.WriteString(EncodeBase64(u.keys.Extra))
		for _, m := range u.metaStrings {
			b.WriteByte('/')
			b.WriteString(m)
		}
		return b.String()
	}
	// No key triple: the first meta string is the raw key-section text and
	// rejoins without a separator.
	b.WriteString(strings.Join(u.metaStrings, "/"))
	return b.String()
}

// NodeKey materializes the concrete node-level key this locator addresses.
// It fails when the locator carries no key triple, the material has the
// wrong shape, or the key family needs derivation outside this layer (KSK).
func (u *URI) NodeKey() (Key, error) {
	if u.keys == nil {
		return nil, newError(KindMalformedURI, "no key material in locator")
	}
	if len(u.keys.Extra) < ExtraLength {
		return nil, newError(KindLength,
			fmt.Sprintf("extra field must be at least %d bytes, got %d", ExtraLength, len(u.keys.Extra)))
	}
	algo := u.keys.Extra[2]
	switch u.keyType {
	case CHK:
		return NewNodeCHK(u.keys.RoutingKey, algo)
	case SSK, USK:
		if len(u.keys.CryptoKey) != CryptoKeyLength {
			return nil, newError(KindLength,
				fmt.Sprintf("crypto key must be %d bytes, got %d", CryptoKeyLength, len(u.keys.CryptoKey)))
		}
		if len(u.metaStrings) == 0 {
			return nil, newError(KindMalformedURI, "subspace locator has no document name")
		}
		ehDocname, err := crypt.EncryptedHashedDocname(u.keys.CryptoKey, u.metaStrings[0])
		if err != nil {
			return nil, wrapError(KindCrypto, "derive encrypted docname hash", err)
		}
		return NewNodeSSK(u.keys.RoutingKey, ehDocname, nil, algo)
	case KSK:
		return nil, newError(KindCrypto, "KSK keys are derived outside this layer")
	default:
		return nil, newError(KindMalformedURI, fmt.Sprintf("invalid key type %q", string(u.keyType)))
	}
}
