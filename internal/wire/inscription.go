// inscription.go - Pool state inscription record.
//
// An inscription publishes a root for permanent reference:
// [domain:1][op:1][root:32][leafCount:4 LE][poolID:32] padded with zeros to a
// fixed record size. Consumers read only the first 70 bytes and ignore the
// trailing padding.

package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/styxlabs/shieldpool/internal/shield"
)

const (
	// InscriptionPrefixLen is the meaningful prefix: 2+32+4+32.
	InscriptionPrefixLen = 70
	// InscriptionRecordLen is the fixed on-ledger record size.
	InscriptionRecordLen = 128
	// OpInscribeState marks a pool state inscription.
	OpInscribeState = 0x40
)

// Inscription is a published pool state reference.
type Inscription struct {
	Root      [32]byte
	LeafCount uint32
	PoolID    [32]byte
}

// Encode lays out the record with reserved zero padding.
func (ins *Inscription) Encode() []byte {
	buf := make([]byte, InscriptionRecordLen)
	buf[0] = DomainSwapPool
	buf[1] = OpInscribeState
	copy(buf[2:34], ins.Root[:])
	binary.LittleEndian.PutUint32(buf[34:38], ins.LeafCount)
	copy(buf[38:70], ins.PoolID[:])
	return buf
}

// DecodeInscription reads the 70-byte prefix. Records may carry any amount
// of trailing padding; anything shorter than the prefix is malformed.
func DecodeInscription(data []byte) (*Inscription, error) {
	if len(data) < InscriptionPrefixLen {
		return nil, fmt.Errorf("%w: inscription record needs %d bytes, got %d",
			shield.ErrMalformedInput, InscriptionPrefixLen, len(data))
	}
	if data[0] != DomainSwapPool || data[1] != OpInscribeState {
		return nil, fmt.Errorf("%w: not a pool state inscription", shield.ErrMalformedInput)
	}
	var ins Inscription
	copy(ins.Root[:], data[2:34])
	ins.LeafCount = binary.LittleEndian.Uint32(data[34:38])
	copy(ins.PoolID[:], data[38:70])
	return &ins, nil
}
