// instruction.go - Fixed-layout binary instructions for the external ledger.
//
// Every instruction starts with [domain:1][op:1]; the payload layout is fixed
// per operation. Integers are little-endian on the wire. Encoders produce
// exactly the documented layouts; decoders reject short or oversized buffers
// with ErrMalformedInput and never read past the documented fields.

package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/styxlabs/shieldpool/internal/shield"
)

// Instruction domains.
const (
	DomainSwapPool  = 0x01 // shielded swap pool program
	DomainAssetTree = 0x02 // compressed-asset tree program
)

// Swap pool operations.
const (
	OpInitPool   = 0x01
	OpDeposit    = 0x10
	OpWithdraw   = 0x20
	OpPlaceOrder = 0x30
	OpAtomicSwap = 0x33
)

// Compressed-asset tree operations.
const (
	OpTreeInit        = 0x01
	OpMintCompressed  = 0x10
	OpCompress        = 0x11
	OpTransfer        = 0x13
	OpPrivateTransfer = 0x21
)

// PrivateTransferProofLen is the fixed proof width of a private transfer.
const PrivateTransferProofLen = 64

func header(domain, op byte, payloadLen int) []byte {
	buf := make([]byte, 0, 2+payloadLen)
	return append(buf, domain, op)
}

// EncodeInitPool encodes pool configuration:
// [poolID:32][maxTreeHeight:1][flags:8 LE].
func EncodeInitPool(poolID [32]byte, maxTreeHeight uint8, flags uint64) []byte {
	buf := header(DomainSwapPool, OpInitPool, 32+1+8)
	buf = append(buf, poolID[:]...)
	buf = append(buf, maxTreeHeight)
	buf = binary.LittleEndian.AppendUint64(buf, flags)
	return buf
}

// EncodeDeposit encodes the commitment context of a deposit:
// [commitment:32][assetID:32][owner:32].
func EncodeDeposit(commitment shield.Commitment, asset shield.AssetID, owner shield.OwnerTag) []byte {
	buf := header(DomainSwapPool, OpDeposit, 32*3)
	buf = append(buf, commitment[:]...)
	buf = append(buf, asset[:]...)
	buf = append(buf, owner[:]...)
	return buf
}

// EncodeWithdraw encodes [nullifier:32][destination:32][proofLen:2 LE][proof].
func EncodeWithdraw(nullifier shield.Nullifier, destination [32]byte, proof []byte) ([]byte, error) {
	if len(proof) > 0xFFFF {
		return nil, fmt.Errorf("%w: proof exceeds wire limit", shield.ErrMalformedInput)
	}
	buf := header(DomainSwapPool, OpWithdraw, 32+32+2+len(proof))
	buf = append(buf, nullifier[:]...)
	buf = append(buf, destination[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(proof)))
	buf = append(buf, proof...)
	return buf, nil
}

// EncodePlaceOrder encodes order parameters:
// [giveAsset:32][wantAsset:32][amount:8 LE].
func EncodePlaceOrder(giveAsset, wantAsset shield.AssetID, amount uint64) []byte {
	buf := header(DomainSwapPool, OpPlaceOrder, 32+32+8)
	buf = append(buf, giveAsset[:]...)
	buf = append(buf, wantAsset[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, amount)
	return buf
}

// EncodeAtomicSwap encodes
// [nullifierA:32][nullifierB:32][outCommitA:32][outCommitB:32][proofLen:2 LE][proof].
func EncodeAtomicSwap(nullifierA, nullifierB shield.Nullifier, outA, outB shield.Commitment, proof []byte) ([]byte, error) {
	if len(proof) > 0xFFFF {
		return nil, fmt.Errorf("%w: proof exceeds wire limit", shield.ErrMalformedInput)
	}
	buf := header(DomainSwapPool, OpAtomicSwap, 32*4+2+len(proof))
	buf = append(buf, nullifierA[:]...)
	buf = append(buf, nullifierB[:]...)
	buf = append(buf, outA[:]...)
	buf = append(buf, outB[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(proof)))
	buf = append(buf, proof...)
	return buf, nil
}

// EncodeTreeInit encodes [assetID:32][treeHeight:1][config:8 LE].
func EncodeTreeInit(asset shield.AssetID, treeHeight uint8, config uint64) []byte {
	buf := header(DomainAssetTree, OpTreeInit, 32+1+8)
	buf = append(buf, asset[:]...)
	buf = append(buf, treeHeight)
	buf = binary.LittleEndian.AppendUint64(buf, config)
	return buf
}

// EncodeCompress encodes [treeID:32][amount:8 LE][valueCommitment:32].
func EncodeCompress(treeID [32]byte, amount uint64, valueCommitment [32]byte) []byte {
	buf := header(DomainAssetTree, OpCompress, 32+8+32)
	buf = append(buf, treeID[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, amount)
	buf = append(buf, valueCommitment[:]...)
	return buf
}

// EncodePrivateTransfer encodes
// [treeID:32][inputNullifier:32][outputCommitment:32][amount:8 LE][proof:64].
func EncodePrivateTransfer(treeID [32]byte, inputNullifier shield.Nullifier, outputCommitment shield.Commitment, amount uint64, proof []byte) ([]byte, error) {
	if len(proof) != PrivateTransferProofLen {
		return nil, fmt.Errorf("%w: private transfer proof must be %d bytes, got %d",
			shield.ErrMalformedInput, PrivateTransferProofLen, len(proof))
	}
	buf := header(DomainAssetTree, OpPrivateTransfer, 32*3+8+PrivateTransferProofLen)
	buf = append(buf, treeID[:]...)
	buf = append(buf, inputNullifier[:]...)
	buf = append(buf, outputCommitment[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, amount)
	buf = append(buf, proof...)
	return buf, nil
}

// Header splits an instruction into domain, op and payload.
func Header(data []byte) (domain, op byte, payload []byte, err error) {
	if len(data) < 2 {
		return 0, 0, nil, fmt.Errorf("%w: instruction shorter than header", shield.ErrMalformedInput)
	}
	return data[0], data[1], data[2:], nil
}
