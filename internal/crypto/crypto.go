// Package crypto provides the field-level encryption service used across the
// platform: authenticated symmetric encryption for sensitive client data,
// password hashing, token generation, content hashing for document
// deduplication, and masking for display.
//
// The service is pure computation: no I/O, no ambient state. The key is
// injected at construction and immutable for the lifetime of the service.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Algorithm identifies the cipher recorded in every envelope.
	Algorithm = "aes-256-gcm"

	// aad binds ciphertexts to this application; an envelope produced
	// elsewhere with the same key will not authenticate.
	aad = "credit-repair-platform"

	keyLength = 32

	pbkdf2Iterations = 10000
	pbkdf2KeyLength  = 64
	saltLength       = 16

	defaultTokenLength = 32
)

var (
	// ErrEncryption reports a failed or invalid encryption request.
	ErrEncryption = errors.New("encryption failed")
	// ErrDecryption reports a malformed envelope, algorithm mismatch, or
	// authentication failure (tampered/corrupted ciphertext).
	ErrDecryption = errors.New("decryption failed")
)

// Envelope is one encrypted value: ciphertext, the per-call IV, the GCM
// authentication tag, and the cipher name, all hex-encoded.
type Envelope struct {
	CipherText string `json:"cipherText"`
	IV         string `json:"iv"`
	AuthTag    string `json:"authTag"`
	Algorithm  string `json:"algorithm"`
}

// PasswordHash is the salt/digest pair produced by HashPassword.
type PasswordHash struct {
	Salt string `json:"salt"`
	Hash string `json:"hash"`
}

// Service implements the encryption operations over a fixed AES-256 key.
// Safe for concurrent use.
type Service struct {
	aead cipher.AEAD
}

// New constructs a Service from a raw 32-byte key.
func New(key []byte) (*Service, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrEncryption, keyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	return &Service{aead: aead}, nil
}

// Encrypt seals plaintext into an Envelope with a fresh random IV.
func (s *Service) Encrypt(plaintext string) (Envelope, error) {
	if plaintext == "" {
		return Envelope{}, fmt.Errorf("%w: plaintext must be a non-empty string", ErrEncryption)
	}

	iv := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	sealed := s.aead.Seal(nil, iv, []byte(plaintext), []byte(aad))

	// Seal appends the tag to the ciphertext; the envelope keeps them apart.
	tagOffset := len(sealed) - s.aead.Overhead()
	return Envelope{
		CipherText: hex.EncodeToString(sealed[:tagOffset]),
		IV:         hex.EncodeToString(iv),
		AuthTag:    hex.EncodeToString(sealed[tagOffset:]),
		Algorithm:  Algorithm,
	}, nil
}

// Decrypt opens an Envelope and returns the plaintext. Any missing component,
// algorithm mismatch, or tag verification failure yields ErrDecryption; a
// tampered ciphertext is never returned as garbage plaintext.
func (s *Service) Decrypt(env Envelope) (string, error) {
	if env.CipherText == "" || env.IV == "" || env.AuthTag == "" {
		return "", fmt.Errorf("%w: missing required components (cipherText, iv, authTag)", ErrDecryption)
	}
	if env.Algorithm != "" && env.Algorithm != Algorithm {
		return "", fmt.Errorf("%w: unsupported algorithm %q", ErrDecryption, env.Algorithm)
	}

	ct, err := hex.DecodeString(env.CipherText)
	if err != nil {
		return "", fmt.Errorf("%w: invalid cipherText encoding", ErrDecryption)
	}
	iv, err := hex.DecodeString(env.IV)
	if err != nil {
		return "", fmt.Errorf("%w: invalid iv encoding", ErrDecryption)
	}
	tag, err := hex.DecodeString(env.AuthTag)
	if err != nil {
		return "", fmt.Errorf("%w: invalid authTag encoding", ErrDecryption)
	}
	if len(iv) != s.aead.NonceSize() {
		return "", fmt.Errorf("%w: invalid iv length", ErrDecryption)
	}

	plaintext, err := s.aead.Open(nil, iv, append(ct, tag...), []byte(aad))
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryption)
	}
	return string(plaintext), nil
}

// HashPassword derives a PBKDF2-SHA512 digest with a fresh random salt.
func (s *Service) HashPassword(password string) (PasswordHash, error) {
	if password == "" {
		return PasswordHash{}, fmt.Errorf("%w: password must be a non-empty string", ErrEncryption)
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return PasswordHash{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	saltHex := hex.EncodeToString(salt)

	digest := pbkdf2.Key([]byte(password), []byte(saltHex), pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
	return PasswordHash{Salt: saltHex, Hash: hex.EncodeToString(digest)}, nil
}

// VerifyPassword recomputes the digest for the given salt and compares in
// constant time. Returns false for any missing input.
func (s *Service) VerifyPassword(password, salt, digest string) bool {
	if password == "" || salt == "" || digest == "" {
		return false
	}
	want, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLength, sha512.New)
	return hmac.Equal(got, want)
}

// GenerateToken returns lengthBytes of cryptographically secure randomness,
// hex-encoded. A non-positive length falls back to 32 bytes.
func (s *Service) GenerateToken(lengthBytes int) (string, error) {
	if lengthBytes <= 0 {
		lengthBytes = defaultTokenLength
	}
	b := make([]byte, lengthBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	return hex.EncodeToString(b), nil
}

// CreateHash returns the hex digest of data. The same bytes always produce
// the same digest; this is the content fingerprint used for document
// deduplication. Supported algorithms: sha256 (default), sha512, sha1.
func (s *Service) CreateHash(data []byte, algorithm string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: data is required for hashing", ErrEncryption)
	}

	var h hash.Hash
	switch algorithm {
	case "", "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	case "sha1":
		h = sha1.New()
	default:
		return "", fmt.Errorf("%w: unsupported hash algorithm %q", ErrEncryption, algorithm)
	}

	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MaskSensitiveData replaces all but the last visibleChars characters with
// '*'. Strings no longer than visibleChars are fully masked. Never fails;
// empty input yields the "***" placeholder.
func (s *Service) MaskSensitiveData(data string, visibleChars int) string {
	if data == "" {
		return "***"
	}
	if visibleChars < 0 {
		visibleChars = 0
	}
	runes := []rune(data)
	if len(runes) <= visibleChars {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-visibleChars) + string(runes[len(runes)-visibleChars:])
}

// sensitiveFields are the client attributes stored only in encrypted form.
var sensitiveFields = []string{"ssn", "bankAccount", "creditCardNumber"}

// EncryptClientData replaces each sensitive plaintext field with its
// "<field>_encrypted" envelope. Non-sensitive fields pass through untouched.
func (s *Service) EncryptClientData(clientData map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(clientData))
	for k, v := range clientData {
		out[k] = v
	}

	for _, field := range sensitiveFields {
		v, ok := out[field]
		if !ok {
			continue
		}
		plaintext, ok := v.(string)
		if !ok || plaintext == "" {
			continue
		}
		env, err := s.Encrypt(plaintext)
		if err != nil {
			return nil, err
		}
		out[field+"_encrypted"] = env
		delete(out, field)
	}
	return out, nil
}

// DecryptClientData restores sensitive plaintext fields from their
// "<field>_encrypted" envelopes. A field that fails to decrypt is left in its
// encrypted form and reported in the returned failure map keyed by field
// name, so callers can decide whether a partially decrypted object is
// acceptable.
func (s *Service) DecryptClientData(clientData map[string]any) (map[string]any, map[string]error) {
	out := make(map[string]any, len(clientData))
	for k, v := range clientData {
		out[k] = v
	}

	failed := make(map[string]error)
	for _, field := range sensitiveFields {
		encKey := field + "_encrypted"
		v, ok := out[encKey]
		if !ok {
			continue
		}
		env, err := toEnvelope(v)
		if err == nil {
			var plaintext string
			plaintext, err = s.Decrypt(env)
			if err == nil {
				out[field] = plaintext
				delete(out, encKey)
				continue
			}
		}
		failed[field] = err
	}
	return out, failed
}

// toEnvelope accepts the shapes an encrypted field may arrive in: a typed
// Envelope, a decoded JSON object, or a JSON string.
func toEnvelope(v any) (Envelope, error) {
	switch t := v.(type) {
	case Envelope:
		return t, nil
	case string:
		var env Envelope
		if err := json.Unmarshal([]byte(t), &env); err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrDecryption, err)
		}
		return env, nil
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrDecryption, err)
		}
		var env Envelope
		if err := json.Unmarshal(b, &env); err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrDecryption, err)
		}
		return env, nil
	default:
		return Envelope{}, fmt.Errorf("%w: unsupported envelope type %T", ErrDecryption, v)
	}
}
