// Package crypto seals archived message text at rest.
//
// Tokens are Fernet (AES-128-CBC + HMAC-SHA256, base64url) so archives written
// with an existing key stay readable.
package crypto

import (
	"fmt"
	"strings"

	"github.com/fernet/fernet-go"

	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
)

// Cipher encrypts and decrypts message text with a single symmetric key.
type Cipher struct {
	keys []*fernet.Key
}

// New builds a cipher from a base64url-encoded 32-byte Fernet key.
func New(key string) (*Cipher, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.ErrKeyMissing
	}

	k, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidKey, err)
	}

	return &Cipher{keys: []*fernet.Key{k}}, nil
}

// Encrypt returns a Fernet token for plaintext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plaintext), c.keys[0])
	if err != nil {
		return "", fmt.Errorf("encrypt message: %w", err)
	}

	return string(tok), nil
}

// Decrypt verifies and opens a token. Tokens never expire.
func (c *Cipher) Decrypt(token string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, c.keys)
	if msg == nil {
		return "", apperrors.ErrInvalidCiphertext
	}

	return string(msg), nil
}
