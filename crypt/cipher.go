package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"sync"

	"golang.org/x/crypto/twofish"
)

// BlockCipher is the opaque symmetric capability handed to the key layer.
// Implementations are not safe for concurrent use until Initialize has
// returned; afterwards Encipher and Decipher are pure and reentrant.
type BlockCipher interface {
	// Initialize schedules the given key. Must be called exactly once.
	Initialize(key []byte) error
	// BlockSize returns the cipher block size in bytes.
	BlockSize() int
	// Encipher encrypts exactly one block from src into dst.
	Encipher(dst, src []byte)
	// Decipher decrypts exactly one block from src into dst.
	Decipher(dst, src []byte)
}

type stdBlockCipher struct {
	name  string
	newFn func(key []byte) (cipher.Block, error)
	block cipher.Block
}

func (c *stdBlockCipher) Initialize(key []byte) error {
	b, err := c.newFn(key)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	c.block = b
	return nil
}

func (c *stdBlockCipher) BlockSize() int {
	if c.block == nil {
		return aes.BlockSize
	}
	return c.block.BlockSize()
}

func (c *stdBlockCipher) Encipher(dst, src []byte) { c.block.Encrypt(dst, src) }
func (c *stdBlockCipher) Decipher(dst, src []byte) { c.block.Decrypt(dst, src) }

// NewBlockCipher returns an uninitialized cipher for the named provider.
// Supported providers: "aes", "twofish".
func NewBlockCipher(name string) (BlockCipher, error) {
	switch name {
	case "aes":
		return &stdBlockCipher{name: "aes", newFn: aes.NewCipher}, nil
	case "twofish":
		return &stdBlockCipher{name: "twofish", newFn: func(key []byte) (cipher.Block, error) {
			return twofish.NewCipher(key)
		}}, nil
	default:
		return nil, fmt.Errorf("unknown block cipher provider %q", name)
	}
}

var (
	defaultOnce     sync.Once
	defaultProvider string
)

// defaultProviderName selects the process-wide provider exactly once.
// AES wins where both are available since it has hardware support on every
// platform we ship to; Twofish remains selectable by name for callers that
// need it.
func defaultProviderName() string {
	defaultOnce.Do(func() {
		defaultProvider = "aes"
	})
	return defaultProvider
}

// NewDefaultCipher returns an uninitialized cipher from the process-wide
// default provider.
func NewDefaultCipher() BlockCipher {
	c, err := NewBlockCipher(defaultProviderName())
	if err != nil {
		// The default provider is always registered.
		panic(err)
	}
	return c
}

// EncryptedHashedDocname computes E(H(docname)): the SHA-256 of the document
// name, enciphered block-by-block under cryptoKey with the default provider.
// The result binds an SSK block to its intended docname without revealing it.
func EncryptedHashedDocname(cryptoKey []byte, docName string) ([]byte, error) {
	c := NewDefaultCipher()
	if err := c.Initialize(cryptoKey); err != nil {
		return nil, err
	}
	h := SHA256([]byte(docName))
	bs := c.BlockSize()
	if len(h)%bs != 0 {
		return nil, fmt.Errorf("digest length %d not a multiple of block size %d", len(h), bs)
	}
	out := make([]byte, len(h))
	for i := 0; i < len(h); i += bs {
		c.Encipher(out[i:i+bs], h[i:i+bs])
	}
	return out, nil
}
