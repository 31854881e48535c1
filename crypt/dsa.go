package crypt

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// Group holds a DSA domain-parameter set. Parameters always travel with the
// public key that uses them; there is no process-wide default group.
type Group struct {
	P *big.Int // prime modulus
	Q *big.Int // prime subgroup order
	G *big.Int // subgroup generator
}

// PublicKey is a DSA verification key over its Group.
type PublicKey struct {
	Group
	Y *big.Int
}

// PrivateKey is a DSA signing key.
type PrivateKey struct {
	PublicKey
	X *big.Int
}

var one = big.NewInt(1)

// Equal reports whether two groups have identical parameters.
func (g *Group) Equal(other *Group) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.P.Cmp(other.P) == 0 && g.Q.Cmp(other.Q) == 0 && g.G.Cmp(other.G) == 0
}

// Equal reports whether two public keys are the same key over the same group.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	if pk == nil || other == nil {
		return pk == other
	}
	return pk.Group.Equal(&other.Group) && pk.Y.Cmp(other.Y) == 0
}

// Bytes returns the serialized form of the public key: the MPI encodings of
// P, Q, G and Y in that order. The SHA-256 of these bytes is the key's
// fingerprint used when deriving subspace routing keys.
func (pk *PublicKey) Bytes() []byte {
	var out []byte
	for _, n := range []*big.Int{pk.P, pk.Q, pk.G, pk.Y} {
		out = append(out, mpiBytes(n)...)
	}
	return out
}

// mpiBytes encodes n as a 2-byte big-endian bit count followed by the
// minimal big-endian magnitude.
func mpiBytes(n *big.Int) []byte {
	bits := n.BitLen()
	body := n.Bytes()
	out := make([]byte, 2+len(body))
	out[0] = byte(bits >> 8)
	out[1] = byte(bits)
	copy(out[2:], body)
	return out
}

// ParsePublicKey decodes the serialized form produced by Bytes: the MPI
// encodings of P, Q, G and Y in that order. Trailing bytes are rejected.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	var fields [4]*big.Int
	rest := b
	for i := range fields {
		n, tail, err := mpiParse(rest)
		if err != nil {
			return nil, fmt.Errorf("public key field %d: %w", i, err)
		}
		fields[i] = n
		rest = tail
	}
	if len(rest) != 0 {
		return nil, errors.New("trailing bytes after public key")
	}
	pk := &PublicKey{
		Group: Group{P: fields[0], Q: fields[1], G: fields[2]},
		Y:     fields[3],
	}
	if pk.P.Sign() <= 0 || pk.Q.Sign() <= 0 || pk.G.Sign() <= 0 || pk.Y.Sign() <= 0 {
		return nil, errors.New("public key field is not positive")
	}
	return pk, nil
}

// mpiParse decodes one MPI from the front of b and returns the remainder.
// The encoded bit count must match the magnitude exactly.
func mpiParse(b []byte) (*big.Int, []byte, error) {
	if len(b) < 2 {
		return nil, nil, errors.New("truncated MPI header")
	}
	bits := int(b[0])<<8 | int(b[1])
	size := (bits + 7) / 8
	if len(b) < 2+size {
		return nil, nil, errors.New("truncated MPI body")
	}
	n := new(big.Int).SetBytes(b[2 : 2+size])
	if n.BitLen() != bits {
		return nil, nil, errors.New("MPI bit count does not match magnitude")
	}
	return n, b[2+size:], nil
}

// hashToInt converts a digest to an integer per FIPS 186-4: the leftmost
// BitLen(Q) bits of the digest.
func hashToInt(q *big.Int, digest []byte) *big.Int {
	orderBits := q.BitLen()
	orderBytes := (orderBits + 7) / 8
	if len(digest) > orderBytes {
		digest = digest[:orderBytes]
	}
	m := new(big.Int).SetBytes(digest)
	if excess := len(digest)*8 - orderBits; excess > 0 {
		m.Rsh(m, uint(excess))
	}
	return m
}

// truncateToOrder converts a digest to an integer the way pre-standard
// signers did: the whole digest interpreted as an unsigned integer, reduced
// mod Q. This is not the FIPS form; real historical blocks were signed over
// it, so verifiers must be able to check both.
func truncateToOrder(q *big.Int, digest []byte) *big.Int {
	m := new(big.Int).SetBytes(digest)
	return m.Mod(m, q)
}

// Verify checks signature (r, s) over digest using the FIPS digest-to-integer
// conversion.
func Verify(pub *PublicKey, r, s *big.Int, digest []byte) bool {
	return verifySig(pub, r, s, hashToInt(pub.Q, digest))
}

// VerifyTruncated checks signature (r, s) over the legacy truncated form of
// digest. Callers try Verify first and fall back to this exactly once.
func VerifyTruncated(pub *PublicKey, r, s *big.Int, digest []byte) bool {
	return verifySig(pub, r, s, truncateToOrder(pub.Q, digest))
}

func verifySig(pub *PublicKey, r, s, m *big.Int) bool {
	if pub == nil || r == nil || s == nil {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(pub.Q) >= 0 || s.Cmp(pub.Q) >= 0 {
		return false
	}
	w := new(big.Int).ModInverse(s, pub.Q)
	if w == nil {
		return false
	}
	u1 := new(big.Int).Mul(m, w)
	u1.Mod(u1, pub.Q)
	u2 := new(big.Int).Mul(r, w)
	u2.Mod(u2, pub.Q)
	v := new(big.Int).Exp(pub.G, u1, pub.P)
	y := new(big.Int).Exp(pub.Y, u2, pub.P)
	v.Mul(v, y)
	v.Mod(v, pub.P)
	v.Mod(v, pub.Q)
	return v.Cmp(r) == 0
}

// Sign produces a signature over digest using the FIPS digest-to-integer
// conversion.
func Sign(priv *PrivateKey, digest []byte, rng io.Reader) (r, s *big.Int, err error) {
	return signValue(priv, hashToInt(priv.Q, digest), rng)
}

// SignTruncated produces a signature over the legacy truncated form of
// digest. It exists so fixtures and interop tools can reproduce blocks
// signed by pre-standard peers; new signers use Sign.
func SignTruncated(priv *PrivateKey, digest []byte, rng io.Reader) (r, s *big.Int, err error) {
	return signValue(priv, truncateToOrder(priv.Q, digest), rng)
}

func signValue(priv *PrivateKey, m *big.Int, rng io.Reader) (*big.Int, *big.Int, error) {
	if priv == nil || priv.X == nil {
		return nil, nil, errors.New("missing private key")
	}
	qm1 := new(big.Int).Sub(priv.Q, one)
	for {
		k, err := rand.Int(rng, qm1)
		if err != nil {
			return nil, nil, fmt.Errorf("generate nonce: %w", err)
		}
		k.Add(k, one) // k in [1, q-1]
		r := new(big.Int).Exp(priv.G, k, priv.P)
		r.Mod(r, priv.Q)
		if r.Sign() == 0 {
			continue
		}
		kInv := new(big.Int).ModInverse(k, priv.Q)
		if kInv == nil {
			continue
		}
		s := new(big.Int).Mul(priv.X, r)
		s.Add(s, m)
		s.Mul(s, kInv)
		s.Mod(s, priv.Q)
		if s.Sign() == 0 {
			continue
		}
		return r, s, nil
	}
}

// GenerateGroup produces a fresh DSA domain-parameter set with a pBits prime
// modulus and a qBits subgroup order.
func GenerateGroup(rng io.Reader, pBits, qBits int) (*Group, error) {
	if pBits < 512 || qBits < 160 || qBits >= pBits {
		return nil, fmt.Errorf("unsupported parameter sizes %d/%d", pBits, qBits)
	}
	q, err := rand.Prime(rng, qBits)
	if err != nil {
		return nil, fmt.Errorf("generate subgroup order: %w", err)
	}
	twoQ := new(big.Int).Lsh(q, 1)
	upper := new(big.Int).Lsh(one, uint(pBits))
	for {
		x, err := rand.Int(rng, upper)
		if err != nil {
			return nil, fmt.Errorf("generate modulus candidate: %w", err)
		}
		x.SetBit(x, pBits-1, 1)
		rem := new(big.Int).Mod(x, twoQ)
		p := new(big.Int).Sub(x, rem)
		p.Add(p, one)
		if p.BitLen() != pBits || !p.ProbablyPrime(20) {
			continue
		}
		e := new(big.Int).Sub(p, one)
		e.Div(e, q)
		for h := int64(2); ; h++ {
			g := new(big.Int).Exp(big.NewInt(h), e, p)
			if g.Cmp(one) > 0 {
				return &Group{P: p, Q: q, G: g}, nil
			}
		}
	}
}

// GenerateKey produces a keypair over the given group.
func GenerateKey(group *Group, rng io.Reader) (*PrivateKey, error) {
	if group == nil {
		return nil, errors.New("missing group")
	}
	qm1 := new(big.Int).Sub(group.Q, one)
	x, err := rand.Int(rng, qm1)
	if err != nil {
		return nil, fmt.Errorf("generate private exponent: %w", err)
	}
	x.Add(x, one)
	y := new(big.Int).Exp(group.G, x, group.P)
	return &PrivateKey{PublicKey: PublicKey{Group: *group, Y: y}, X: x}, nil
}
