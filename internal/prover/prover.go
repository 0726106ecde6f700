// prover.go - Opaque validity-proof verification capability.
//
// The pool treats the proof accompanying a withdraw or swap strictly as an
// opaque blob produced by an external prover. Verifier is the boolean
// capability the pool is constructed with; implementations decide what the
// blob means.

package prover

// PublicInputs carries the public values a proof is checked against. The
// pool fills these from its own state; the verifier never sees note secrets.
type PublicInputs struct {
	Root        [32]byte   // accumulator root at verification time
	Nullifiers  [][32]byte // nullifiers being published
	Commitments [][32]byte // output commitments being inserted, if any
}

// Verifier checks an opaque proof blob against public inputs.
type Verifier interface {
	Verify(proof []byte, inputs PublicInputs) error
}

// AcceptAll is a Verifier that accepts every blob. It stands in for the
// external prover in tests and local runs.
type AcceptAll struct{}

func (AcceptAll) Verify(proof []byte, inputs PublicInputs) error {
	return nil
}

// RejectAll is a Verifier that rejects everything. Used to exercise the
// pool's no-partial-effect guarantees.
type RejectAll struct{}

func (RejectAll) Verify(proof []byte, inputs PublicInputs) error {
	return ErrVerification
}
