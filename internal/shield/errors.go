// errors.go - Error taxonomy for pool operations.
//
// Every rejection a caller can observe maps onto exactly one of these
// sentinels; call sites wrap them with context via fmt.Errorf and %w so
// errors.Is still distinguishes the five kinds.

package shield

import "errors"

var (
	// ErrMalformedInput reports a fixed-width field of the wrong length or an
	// undecodable buffer. Fatal for the call; never partially applied.
	ErrMalformedInput = errors.New("malformed input")

	// ErrCapacity reports accumulator growth past the configured maximum tree
	// height. Fatal for that deposit; existing state is untouched.
	ErrCapacity = errors.New("accumulator capacity exceeded")

	// ErrDoubleSpend reports a nullifier already present in the spend
	// registry. The note is permanently unusable; this is the intended
	// outcome of the nullifier mechanism, not a fault.
	ErrDoubleSpend = errors.New("double spend: nullifier already recorded")

	// ErrInvalidProof reports an inclusion proof whose recomputed root does
	// not match the accumulator's current root, or an opaque validity proof
	// the external verifier rejected. May be retried with a fresh proof.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrValueConservation reports swap outputs that do not match the inputs'
	// asset and amount. Fatal until the amounts are corrected.
	ErrValueConservation = errors.New("value conservation violated")
)
