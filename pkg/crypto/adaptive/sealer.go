package adaptive

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// sealMagic prefixes every sealed value. JSON never starts with it, so
// plaintext and sealed values can live side by side.
var sealMagic = []byte("MKS1")

var cipherIDs = map[CipherType]byte{
	CipherAESGCM:   1,
	CipherChaCha20: 2,
}

// ErrNotSealed is returned by Open for values without a seal header.
var ErrNotSealed = errors.New("value is not sealed")

// Sealer encrypts values with a key derived from an operator secret.
type Sealer struct {
	key     []byte
	primary Cipher
}

// DeriveKey derives a KeySize key from secret for the given purpose.
func DeriveKey(secret []byte, purpose string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty secret")
	}
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte("mdkeep/"+purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// NewSealer creates a Sealer for secret, scoped to purpose.
func NewSealer(secret []byte, purpose string) (*Sealer, error) {
	key, err := DeriveKey(secret, purpose)
	if err != nil {
		return nil, err
	}
	primary, err := New(key)
	if err != nil {
		return nil, err
	}
	return &Sealer{key: key, primary: primary}, nil
}

// Type returns the cipher used for new values.
func (s *Sealer) Type() CipherType {
	return s.primary.Type()
}

// Seal encrypts plaintext and prepends the seal header.
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	ct, err := s.primary.Encrypt(plaintext, additionalData)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(sealMagic)+1+len(ct))
	out = append(out, sealMagic...)
	out = append(out, cipherIDs[s.primary.Type()])
	return append(out, ct...), nil
}

// Open decrypts a value produced by Seal, using whichever cipher sealed it.
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	if !IsSealed(sealed) {
		return nil, ErrNotSealed
	}
	id := sealed[len(sealMagic)]

	var typ CipherType
	for t, tid := range cipherIDs {
		if tid == id {
			typ = t
		}
	}
	if typ == "" {
		return nil, fmt.Errorf("unknown cipher id %d", id)
	}

	c := s.primary
	if typ != c.Type() {
		var err error
		if c, err = NewWithType(s.key, typ); err != nil {
			return nil, err
		}
	}
	return c.Decrypt(sealed[len(sealMagic)+1:], additionalData)
}

// IsSealed reports whether b carries a seal header.
func IsSealed(b []byte) bool {
	return len(b) > len(sealMagic) && bytes.HasPrefix(b, sealMagic)
}
