// Package attest signs redaction manifests so that a region list produced for
// a document can be checked later without re-running detection.
package attest

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/ripemd160"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

// ErrBadSignature is returned when a signature does not match the manifest
// or the expected signer.
var ErrBadSignature = errors.New("attest: bad signature")

// Manifest records what was redacted in one document.
type Manifest struct {
	JobID      string          `json:"job_id"`
	Document   string          `json:"document"` // sha256 hex of the input bytes
	Categories []string        `json:"categories"`
	Regions    []redact.Region `json:"regions"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewManifest builds a manifest for doc. Categories are stored sorted.
func NewManifest(jobID string, doc []byte, cats redact.CategorySet, regions []redact.Region) Manifest {
	sum := sha256.Sum256(doc)
	if regions == nil {
		regions = []redact.Region{}
	}
	names := cats.Names()
	if names == nil {
		names = []string{}
	}
	return Manifest{
		JobID:      jobID,
		Document:   hex.EncodeToString(sum[:]),
		Categories: names,
		Regions:    regions,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

// Digest is the Keccak-256 hash of the manifest's JSON encoding.
func (m Manifest) Digest() ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("attest: encode manifest: %w", err)
	}
	return crypto.Keccak256(raw), nil
}

// Signer produces recoverable secp256k1 signatures over manifests.
type Signer struct {
	key   *ecdsa.PrivateKey
	keyID string
}

// NewSigner creates a Signer from a hex-encoded private key (0x prefix optional).
func NewSigner(hexKey string) (*Signer, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("attest: invalid hex key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("attest: key must be 32 bytes, got %d", len(raw))
	}
	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("attest: %w", err)
	}
	return &Signer{key: key, keyID: KeyID(&key.PublicKey)}, nil
}

// KeyID identifies the signer in manifests and response headers.
func (s *Signer) KeyID() string { return s.keyID }

// Sign returns the hex-encoded 65-byte [R || S || V] signature of m.
func (s *Signer) Sign(m Manifest) (string, error) {
	digest, err := m.Digest()
	if err != nil {
		return "", err
	}
	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return "", fmt.Errorf("attest: sign: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// KeyID is RIPEMD160(SHA256(compressed public key)) in hex.
func KeyID(pub *ecdsa.PublicKey) string {
	sha := sha256.Sum256(crypto.CompressPubkey(pub))
	h := ripemd160.New()
	h.Write(sha[:])
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks that sigHex is a signature of m made by the key identified
// by keyID.
func Verify(m Manifest, sigHex, keyID string) error {
	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil || len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: malformed", ErrBadSignature)
	}
	digest, err := m.Digest()
	if err != nil {
		return err
	}
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if !crypto.VerifySignature(crypto.CompressPubkey(pub), digest, sig[:64]) {
		return ErrBadSignature
	}
	if !strings.EqualFold(KeyID(pub), keyID) {
		return fmt.Errorf("%w: signer mismatch", ErrBadSignature)
	}
	return nil
}
