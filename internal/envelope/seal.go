// seal.go - AEAD sealing of note payloads.
//
// Key and nonce derivation mirror the on-ledger memo program: SHA-256 over a
// fixed domain tag and the two parties' tags. A different recipient, sender
// or envelope id yields an unrelated key stream.

package envelope

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/styxlabs/shieldpool/internal/shield"
)

const (
	keyDomain   = "styx.envelope.key.v1"
	nonceDomain = "styx.envelope.nonce.v1"
)

// NotePayload is the plaintext carried by a KindNote envelope: exactly what
// the recipient needs to reconstruct and later spend the note.
type NotePayload struct {
	Asset         shield.AssetID `json:"asset"`
	Amount        uint64         `json:"amount"`
	Secret        [32]byte       `json:"secret"`
	NullifierSeed [32]byte       `json:"nullifier_seed"`
	LeafIndex     int64          `json:"leaf_index"`
}

// deriveKey binds the AEAD key to both parties.
func deriveKey(sender, recipient shield.OwnerTag) [32]byte {
	h := sha256.New()
	h.Write([]byte(keyDomain))
	h.Write(sender[:])
	h.Write(recipient[:])
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}

// deriveNonce binds the nonce to the envelope id.
func deriveNonce(id [32]byte) []byte {
	h := sha256.New()
	h.Write([]byte(nonceDomain))
	h.Write(id[:])
	return h.Sum(nil)[:chacha20poly1305.NonceSize]
}

// SealNote encrypts a note payload from sender to recipient and wraps it in
// a v1 envelope. The envelope id doubles as nonce material, so ids must be
// unique per (sender, recipient) pair; callers use fresh randomness.
func SealNote(sender, recipient shield.OwnerTag, id [32]byte, payload *NotePayload) (*Envelope, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	key := deriveKey(sender, recipient)
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	recipientHash := [32]byte(recipient)
	from := [32]byte(sender)
	return &Envelope{
		Kind:   KindNote,
		Algo:   AlgoChaCha20Poly1305,
		ID:     id,
		ToHash: &recipientHash,
		From:   &from,
		Body:   aead.Seal(nil, deriveNonce(id), plain, id[:]),
	}, nil
}

// OpenNote decrypts a KindNote envelope addressed to recipient.
func OpenNote(recipient shield.OwnerTag, env *Envelope) (*NotePayload, error) {
	if env.Kind != KindNote {
		return nil, fmt.Errorf("%w: envelope kind %d is not a note", shield.ErrMalformedInput, env.Kind)
	}
	if env.Algo != AlgoChaCha20Poly1305 {
		return nil, fmt.Errorf("%w: unsupported envelope algo %d", shield.ErrMalformedInput, env.Algo)
	}
	if env.From == nil {
		return nil, fmt.Errorf("%w: envelope missing sender tag", shield.ErrMalformedInput)
	}
	if env.ToHash != nil && *env.ToHash != [32]byte(recipient) {
		return nil, fmt.Errorf("envelope not addressed to recipient")
	}
	key := deriveKey(shield.OwnerTag(*env.From), recipient)
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, deriveNonce(env.ID), env.Body, env.ID[:])
	if err != nil {
		return nil, fmt.Errorf("envelope open failed: %w", err)
	}
	var payload NotePayload
	if err := json.Unmarshal(plain, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
