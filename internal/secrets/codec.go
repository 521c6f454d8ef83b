package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/forceweaver/orghealth/internal/core"
)

// SchemeVersion tags ciphertexts so a future key or algorithm rotation can
// tell old blobs apart.
const SchemeVersion = 1

// Codec encrypts refresh tokens at rest with AES-256-GCM. The key lives only
// in process memory; it is never written to the store.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives a 256-bit key from the configured secret. An empty secret
// is an operator error, not something to paper over with a generated key.
func NewCodec(key string) (*Codec, error) {
	if key == "" {
		return nil, errors.New("encryption key is not configured")
	}

	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext into a base64 blob: nonce || ciphertext || tag.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Any failure — wrong key, tamper,
// truncation, bad encoding — comes back as a ConfigurationError so it is
// never mistaken for a remote auth failure.
func (c *Codec) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", core.WrapError(core.KindConfigurationError,
			"stored credential is not valid base64",
			core.ErrConfigurationError.Hint, err)
	}

	if len(raw) < c.aead.NonceSize() {
		return "", core.WrapError(core.KindConfigurationError,
			"stored credential is truncated",
			core.ErrConfigurationError.Hint, nil)
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", core.WrapError(core.KindConfigurationError,
			"stored credential failed authentication",
			core.ErrConfigurationError.Hint, err)
	}

	return string(plaintext), nil
}
