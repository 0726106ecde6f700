// groth16.go - Groth16-backed Verifier over BLS12-377.
//
// Adapter for an external prover that emits gnark Groth16 proofs. The blob is
// the gnark wire encoding of the proof; the verifying key is produced by the
// prover's own setup and loaded from disk. The constraint system itself lives
// with the external prover - this side only rebuilds the public witness and
// checks the pairing equation.

package prover

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
)

// ErrVerification reports a proof the verifier rejected.
var ErrVerification = errors.New("proof verification failed")

// spendStatement mirrors the public inputs of the external spend circuit:
// the accumulator root, up to two published nullifiers and up to two output
// commitments, zero-padded when unused.
type spendStatement struct {
	Root        frontend.Variable    `gnark:",public"`
	Nullifiers  [2]frontend.Variable `gnark:",public"`
	Commitments [2]frontend.Variable `gnark:",public"`
}

// Define exists to satisfy frontend.Circuit; the constraint system is
// compiled by the external prover, never here.
func (c *spendStatement) Define(api frontend.API) error {
	return nil
}

// Groth16Verifier verifies opaque proof blobs against a verifying key.
type Groth16Verifier struct {
	vk groth16.VerifyingKey
}

// NewGroth16Verifier wraps a verifying key.
func NewGroth16Verifier(vk groth16.VerifyingKey) *Groth16Verifier {
	return &Groth16Verifier{vk: vk}
}

// LoadGroth16Verifier reads the prover's verifying key from disk.
func LoadGroth16Verifier(path string) (*Groth16Verifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(ecc.BLS12_377)
	if _, err := vk.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("reading verifying key: %w", err)
	}
	return &Groth16Verifier{vk: vk}, nil
}

// Verify unmarshals the blob and checks it against the public inputs.
func (v *Groth16Verifier) Verify(proof []byte, inputs PublicInputs) error {
	p := groth16.NewProof(ecc.BLS12_377)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		return fmt.Errorf("%w: cannot unmarshal proof", ErrVerification)
	}

	stmt := &spendStatement{Root: toVariable(inputs.Root)}
	for i := range stmt.Nullifiers {
		stmt.Nullifiers[i] = "0"
		if i < len(inputs.Nullifiers) {
			stmt.Nullifiers[i] = toVariable(inputs.Nullifiers[i])
		}
	}
	for i := range stmt.Commitments {
		stmt.Commitments[i] = "0"
		if i < len(inputs.Commitments) {
			stmt.Commitments[i] = toVariable(inputs.Commitments[i])
		}
	}

	w, err := frontend.NewWitness(stmt, ecc.BLS12_377.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("%w: cannot build public witness", ErrVerification)
	}
	if err := groth16.Verify(p, v.vk, w); err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	return nil
}

// toVariable reduces a 32-byte digest into the scalar field; digests can
// exceed the BLS12-377 modulus, so the statement always carries the residue.
func toVariable(digest [32]byte) frontend.Variable {
	v := new(big.Int).SetBytes(digest[:])
	return v.Mod(v, ecc.BLS12_377.ScalarField()).String()
}
