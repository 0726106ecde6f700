// Package shield implements the shielded-note primitives of the privacy pool.
//
// Overview:
//   - Notes hide asset identity, amount and ownership behind a 32-byte commitment
//   - Nullifiers are secret-derived spend tags published when a note is consumed
//   - The SpendRegistry is the append-only double-spend guard over nullifiers
//   - Wallets keep note secrets on the owner side; the pool core only ever sees
//     commitments, nullifiers and proofs
//
// Security Model:
//   - Commitments and nullifiers are SHA-256 digests over domain-tagged,
//     fixed-width encodings; every derivation uses its own fixed tag
//   - Domain tags match the on-ledger verification logic and must not change
//   - All randomness is generated with crypto/rand
//
// References:
//   - Zerocash: Decentralized Anonymous Payments from Bitcoin (Ben-Sasson et al., 2014)
package shield
