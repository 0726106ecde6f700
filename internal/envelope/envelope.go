// envelope.go - Encrypted note envelope for off-ledger recovery.
//
// A sealed envelope lets a recipient recover a note's secret material from
// public relay logs. The canonical binary layout is
// [magic:4][v:1][kind:1][flags:2 LE][algo:1][id:32] followed by optional
// 32-byte to/from tags and uleb128-length-prefixed nonce, body, aad and sig
// fields, in that order. Decoders reject bad magic, unknown versions and
// trailing bytes.

package envelope

import (
	"encoding/binary"
	"fmt"

	"github.com/styxlabs/shieldpool/internal/shield"
)

// Magic identifies an envelope ("STYX").
var Magic = [4]byte{0x53, 0x54, 0x59, 0x58}

// V1 is the only supported envelope version.
const V1 = 1

// MaxEnvelopeBytes bounds a relayed envelope. Keeps relay transactions
// affordable and limits log spam; the relay rejects anything larger.
const MaxEnvelopeBytes = 1024

// Kind discriminates envelope payloads.
type Kind byte

const (
	KindNote      Kind = 1 // sealed note secrets
	KindReveal    Kind = 2 // compliance disclosure
	KindKeybundle Kind = 3 // recipient key material
)

// Algo names the sealing algorithm.
type Algo byte

// AlgoChaCha20Poly1305 is the only supported AEAD.
const AlgoChaCha20Poly1305 Algo = 1

// Presence flags.
const (
	flagToHash uint16 = 1 << 0
	flagFrom   uint16 = 1 << 1
	flagNonce  uint16 = 1 << 2
	flagAAD    uint16 = 1 << 3
	flagSig    uint16 = 1 << 4
)

// Envelope is the decoded wire structure. Optional fields are nil when the
// corresponding flag is unset.
type Envelope struct {
	Kind   Kind
	Algo   Algo
	ID     [32]byte
	ToHash *[32]byte
	From   *[32]byte
	Nonce  []byte
	Body   []byte
	AAD    []byte
	Sig    []byte
}

// Encode produces the canonical binary form.
func (e *Envelope) Encode() ([]byte, error) {
	var flags uint16
	if e.ToHash != nil {
		flags |= flagToHash
	}
	if e.From != nil {
		flags |= flagFrom
	}
	if e.Nonce != nil {
		flags |= flagNonce
	}
	if e.AAD != nil {
		flags |= flagAAD
	}
	if e.Sig != nil {
		flags |= flagSig
	}

	out := make([]byte, 0, 9+32+len(e.Body)+len(e.Nonce)+len(e.AAD)+len(e.Sig)+16)
	out = append(out, Magic[:]...)
	out = append(out, V1, byte(e.Kind))
	out = binary.LittleEndian.AppendUint16(out, flags)
	out = append(out, byte(e.Algo))
	out = append(out, e.ID[:]...)
	if e.ToHash != nil {
		out = append(out, e.ToHash[:]...)
	}
	if e.From != nil {
		out = append(out, e.From[:]...)
	}
	if e.Nonce != nil {
		out = appendVarBytes(out, e.Nonce)
	}
	out = appendVarBytes(out, e.Body)
	if e.AAD != nil {
		out = appendVarBytes(out, e.AAD)
	}
	if e.Sig != nil {
		out = appendVarBytes(out, e.Sig)
	}
	if len(out) > MaxEnvelopeBytes {
		return nil, fmt.Errorf("%w: envelope %d bytes exceeds limit %d",
			shield.ErrMalformedInput, len(out), MaxEnvelopeBytes)
	}
	return out, nil
}

// Decode parses the canonical binary form.
func Decode(buf []byte) (*Envelope, error) {
	const minLen = 4 + 1 + 1 + 2 + 1 + 32
	if len(buf) < minLen {
		return nil, fmt.Errorf("%w: envelope too short", shield.ErrMalformedInput)
	}
	if [4]byte(buf[:4]) != Magic {
		return nil, fmt.Errorf("%w: bad envelope magic", shield.ErrMalformedInput)
	}
	if buf[4] != V1 {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", shield.ErrMalformedInput, buf[4])
	}
	e := &Envelope{Kind: Kind(buf[5])}
	flags := binary.LittleEndian.Uint16(buf[6:8])
	e.Algo = Algo(buf[8])
	o := 9

	copy(e.ID[:], buf[o:o+32])
	o += 32

	var err error
	if flags&flagToHash != 0 {
		var th [32]byte
		if o+32 > len(buf) {
			return nil, fmt.Errorf("%w: envelope truncated", shield.ErrMalformedInput)
		}
		copy(th[:], buf[o:o+32])
		e.ToHash = &th
		o += 32
	}
	if flags&flagFrom != 0 {
		var fr [32]byte
		if o+32 > len(buf) {
			return nil, fmt.Errorf("%w: envelope truncated", shield.ErrMalformedInput)
		}
		copy(fr[:], buf[o:o+32])
		e.From = &fr
		o += 32
	}
	if flags&flagNonce != 0 {
		if e.Nonce, o, err = readVarBytes(buf, o); err != nil {
			return nil, err
		}
	}
	if e.Body, o, err = readVarBytes(buf, o); err != nil {
		return nil, err
	}
	if flags&flagAAD != 0 {
		if e.AAD, o, err = readVarBytes(buf, o); err != nil {
			return nil, err
		}
	}
	if flags&flagSig != 0 {
		if e.Sig, o, err = readVarBytes(buf, o); err != nil {
			return nil, err
		}
	}
	if o != len(buf) {
		return nil, fmt.Errorf("%w: trailing bytes after envelope", shield.ErrMalformedInput)
	}
	return e, nil
}

func appendVarBytes(out, v []byte) []byte {
	out = appendUleb128(out, uint64(len(v)))
	return append(out, v...)
}

func appendUleb128(out []byte, n uint64) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
		} else {
			return append(out, b)
		}
	}
}

func readVarBytes(buf []byte, o int) ([]byte, int, error) {
	n, o, err := readUleb128(buf, o)
	if err != nil {
		return nil, 0, err
	}
	end := o + int(n)
	if end > len(buf) {
		return nil, 0, fmt.Errorf("%w: varBytes out of range", shield.ErrMalformedInput)
	}
	return append([]byte(nil), buf[o:end]...), end, nil
}

func readUleb128(buf []byte, o int) (uint64, int, error) {
	var result uint64
	var shift uint
	for {
		if o >= len(buf) {
			return 0, 0, fmt.Errorf("%w: varint overflow", shield.ErrMalformedInput)
		}
		b := buf[o]
		o++
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, o, nil
		}
		shift += 7
		if shift > 28 {
			return 0, 0, fmt.Errorf("%w: varint too large", shield.ErrMalformedInput)
		}
	}
}
