// Package cryptostore encrypts Integration credentials at rest, grounded
// on the teacher's internal/crypto keyring (named master keys, envelope
// wrap/unwrap) but over XChaCha20-Poly1305 from golang.org/x/crypto
// instead of AES-GCM, for its 24-byte nonce — safe to generate randomly
// at the volume one installation's credential writes produce.
package cryptostore

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrKeyNotFound    = errors.New("cryptostore: key not found in keyring")
	ErrActiveKeyUnset = errors.New("cryptostore: active master key not set or found")
)

// namedKey is the wire shape of one entry in the FOE_MASTER_KEYS env var.
type namedKey struct {
	KID      string `json:"kid"`
	Material string `json:"material"` // base64, 32 bytes
}

// Keyring holds named 32-byte master keys and encrypts/decrypts small
// secrets (RTSP passwords, API keys) directly under the active one.
type Keyring struct {
	keys      map[string][]byte
	activeKID string
}

func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string][]byte)}
}

// LoadFromEnv loads FOE_MASTER_KEYS (JSON array of namedKey) and
// FOE_ACTIVE_MASTER_KID from the environment.
func (k *Keyring) LoadFromEnv() error {
	keysJSON := os.Getenv("FOE_MASTER_KEYS")
	activeKID := os.Getenv("FOE_ACTIVE_MASTER_KID")

	if keysJSON == "" {
		return errors.New("cryptostore: FOE_MASTER_KEYS environment variable is empty")
	}
	if activeKID == "" {
		return errors.New("cryptostore: FOE_ACTIVE_MASTER_KID environment variable is empty")
	}

	var raw []namedKey
	if err := json.Unmarshal([]byte(keysJSON), &raw); err != nil {
		return fmt.Errorf("cryptostore: parse FOE_MASTER_KEYS: %w", err)
	}

	keys := make(map[string][]byte, len(raw))
	for _, rk := range raw {
		if rk.KID == "" {
			return errors.New("cryptostore: master key with empty kid")
		}
		if _, exists := keys[rk.KID]; exists {
			return fmt.Errorf("cryptostore: duplicate master key kid: %s", rk.KID)
		}
		decoded, err := base64.StdEncoding.DecodeString(rk.Material)
		if err != nil {
			return fmt.Errorf("cryptostore: invalid base64 for key %s: %w", rk.KID, err)
		}
		if len(decoded) != chacha20poly1305.KeySize {
			return fmt.Errorf("cryptostore: invalid key length for %s: expected %d bytes, got %d", rk.KID, chacha20poly1305.KeySize, len(decoded))
		}
		keys[rk.KID] = decoded
	}

	if _, ok := keys[activeKID]; !ok {
		return fmt.Errorf("cryptostore: active key %s not found in FOE_MASTER_KEYS", activeKID)
	}

	k.keys = keys
	k.activeKID = activeKID
	return nil
}

// Sealed is a ciphertext plus the metadata needed to decrypt it again.
type Sealed struct {
	KID        string `json:"kid"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Seal encrypts plaintext under the active master key, with aad (e.g. the
// integration ID) bound into the authentication tag.
func (k *Keyring) Seal(plaintext, aad []byte) (Sealed, error) {
	if k.activeKID == "" {
		return Sealed{}, ErrActiveKeyUnset
	}
	key, ok := k.keys[k.activeKID]
	if !ok {
		return Sealed{}, ErrActiveKeyUnset
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return Sealed{}, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Sealed{}, err
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, aad)
	return Sealed{KID: k.activeKID, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// TryOpenConfig decrypts an Integration's opaque config blob if it is a
// sealed envelope (a JSON object with non-empty kid/nonce/ciphertext
// fields), returning the decrypted plaintext and true. A blob that does
// not parse as a Sealed envelope is returned unchanged with false, so a
// plaintext config (e.g. local development without FOE_MASTER_KEYS set)
// keeps working rather than failing closed.
func (k *Keyring) TryOpenConfig(raw json.RawMessage, aad []byte) (json.RawMessage, bool) {
	var s Sealed
	if err := json.Unmarshal(raw, &s); err != nil || s.KID == "" || len(s.Nonce) == 0 {
		return raw, false
	}
	plaintext, err := k.Open(s, aad)
	if err != nil {
		return raw, false
	}
	return plaintext, true
}

// Open decrypts a Sealed value using the master key named in it.
func (k *Keyring) Open(s Sealed, aad []byte) ([]byte, error) {
	key, ok := k.keys[s.KID]
	if !ok {
		return nil, ErrKeyNotFound
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, s.Nonce, s.Ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("cryptostore: decryption failed: %w", err)
	}
	return plaintext, nil
}
