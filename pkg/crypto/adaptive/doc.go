// Package adaptive seals small payloads at rest with an AEAD cipher
// chosen for the host.
//
// AES-256-GCM is used where the CPU accelerates AES, ChaCha20-Poly1305
// elsewhere. Sealed values carry a short header naming the cipher, so a
// database written on one machine opens on another.
//
// Keys are derived from an operator secret with HKDF-SHA256; the secret
// itself is never used as a cipher key.
//
// Usage:
//
//	s, err := adaptive.NewSealer(secret, "backups")
//	sealed, err := s.Seal(plaintext, aad)
//	plaintext, err := s.Open(sealed, aad)
package adaptive
