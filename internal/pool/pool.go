// pool.go - Pool protocol layer: deposit, withdraw and atomic swap.
//
// The Pool is the single owned state object composing the accumulator, the
// spend registry and the indexer-facing records. Every operation runs under
// one exclusive lock, so the compound check-and-set contracts (nullifier
// absent then spent, both-or-neither for swaps) hold against any concurrent
// observer, and a failed operation leaves no partial trace.

package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/styxlabs/shieldpool/internal/merkle"
	"github.com/styxlabs/shieldpool/internal/prover"
	"github.com/styxlabs/shieldpool/internal/shield"
)

// Config carries the pool's immutable parameters.
type Config struct {
	// PoolID identifies this pool in inscriptions and instructions.
	PoolID [32]byte
	// MaxTreeHeight caps accumulator growth; 0 means unbounded.
	MaxTreeHeight int
}

// NoteRecord is the indexer-facing view of one published note: everything a
// mirror needs and nothing derived from secret material.
type NoteRecord struct {
	Commitment shield.Commitment `json:"commitment"`
	Owner      shield.OwnerTag   `json:"owner"`
	Asset      shield.AssetID    `json:"asset_id"`
	LeafIndex  int64             `json:"leaf_index"`
}

// Transfer is the value movement a successful withdraw emits.
type Transfer struct {
	Asset       shield.AssetID `json:"asset"`
	Amount      uint64         `json:"amount"`
	Destination [32]byte       `json:"destination"`
}

// Stats summarizes the pool for the indexer's getPrivacyPoolStats method.
type Stats struct {
	LeafCount   int         `json:"leaf_count"`
	TreeHeight  int         `json:"tree_height"`
	Root        merkle.Node `json:"root"`
	SpentCount  int         `json:"spent_count"`
	Deposits    uint64      `json:"deposits"`
	Withdrawals uint64      `json:"withdrawals"`
	Swaps       uint64      `json:"swaps"`
}

// Observer receives the outcome of every pool operation. Implementations
// must be safe for concurrent use; the pool calls them outside its lock.
type Observer interface {
	Committed(op string, elapsed time.Duration)
	Rejected(op string, err error)
}

type nopObserver struct{}

func (nopObserver) Committed(string, time.Duration) {}
func (nopObserver) Rejected(string, error)          {}

// Pool is the shielded pool state machine.
type Pool struct {
	mu       sync.Mutex
	cfg      Config
	acc      *merkle.Accumulator
	registry *shield.SpendRegistry
	verifier prover.Verifier
	log      zerolog.Logger
	obs      Observer

	notes     []NoteRecord
	transfers []Transfer

	deposits    uint64
	withdrawals uint64
	swaps       uint64
}

// New creates an empty pool. The verifier is the external-prover capability
// every withdraw and swap proof is checked with.
func New(cfg Config, verifier prover.Verifier, log zerolog.Logger) *Pool {
	return &Pool{
		cfg:      cfg,
		acc:      merkle.NewAccumulator(),
		registry: shield.NewSpendRegistry(),
		verifier: verifier,
		log:      log.With().Str("component", "pool").Logger(),
		obs:      nopObserver{},
	}
}

// SetObserver installs an operation observer. Call before serving traffic.
func (p *Pool) SetObserver(o Observer) {
	if o != nil {
		p.obs = o
	}
}

// Registry exposes the spend registry for derived note-state queries.
func (p *Pool) Registry() *shield.SpendRegistry {
	return p.registry
}

// DepositReceipt reports the outcome of a deposit. The note, including its
// secret material, belongs to the depositor; the pool retains only the
// commitment.
type DepositReceipt struct {
	Note      *shield.Note
	LeafIndex int64
	Root      merkle.Node
}

// Deposit creates a fresh note for (asset, amount), inserts its commitment
// into the accumulator and returns the assigned leaf index. No nullifier is
// involved.
func (p *Pool) Deposit(asset shield.AssetID, amount uint64, owner shield.OwnerTag) (*DepositReceipt, error) {
	start := time.Now()
	receipt, err := p.deposit(asset, amount, owner)
	if err != nil {
		p.obs.Rejected("deposit", err)
		return nil, err
	}
	p.obs.Committed("deposit", time.Since(start))
	return receipt, nil
}

func (p *Pool) deposit(asset shield.AssetID, amount uint64, owner shield.OwnerTag) (*DepositReceipt, error) {
	opID := uuid.New().String()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkCapacity(1); err != nil {
		p.log.Warn().Str("op", opID).Err(err).Msg("deposit rejected")
		return nil, err
	}

	note := shield.NewNote(asset, amount)
	idx := p.acc.Append(merkle.Node(note.Commitment))
	note.LeafIndex = int64(idx)
	p.notes = append(p.notes, NoteRecord{
		Commitment: note.Commitment,
		Owner:      owner,
		Asset:      asset,
		LeafIndex:  note.LeafIndex,
	})
	p.deposits++

	p.log.Info().
		Str("op", opID).
		Int64("leaf_index", note.LeafIndex).
		Int("tree_height", p.acc.Height()).
		Hex("commitment", note.Commitment[:]).
		Msg("note deposited")

	return &DepositReceipt{Note: note, LeafIndex: note.LeafIndex, Root: p.acc.Root()}, nil
}

// WithdrawRequest spends a note to a destination. Proof is the opaque
// validity blob from the external prover.
type WithdrawRequest struct {
	Note        *shield.Note
	Destination [32]byte
	Proof       []byte
}

// WithdrawReceipt reports a successful withdraw.
type WithdrawReceipt struct {
	Nullifier shield.Nullifier
	Transfer  Transfer
	Root      merkle.Node
}

// Withdraw derives the note's nullifier, checks it against the registry,
// verifies inclusion against the current root plus the opaque validity
// proof, then marks the nullifier spent and emits the value transfer. The
// registry check and the mark are one atomic step; a withdraw that fails
// verification never marks the nullifier.
func (p *Pool) Withdraw(req WithdrawRequest) (*WithdrawReceipt, error) {
	start := time.Now()
	receipt, err := p.withdraw(req)
	if err != nil {
		p.obs.Rejected("withdraw", err)
		return nil, err
	}
	p.obs.Committed("withdraw", time.Since(start))
	return receipt, nil
}

func (p *Pool) withdraw(req WithdrawRequest) (*WithdrawReceipt, error) {
	opID := uuid.New().String()

	p.mu.Lock()
	defer p.mu.Unlock()

	if req.Note == nil || req.Note.LeafIndex == shield.LeafUnassigned {
		return nil, fmt.Errorf("%w: note has no leaf index", shield.ErrMalformedInput)
	}

	nf := req.Note.Nullifier()
	if p.registry.Spent(nf) {
		p.log.Warn().Str("op", opID).Hex("nullifier", nf[:]).Msg("withdraw rejected: double spend")
		return nil, shield.ErrDoubleSpend
	}

	if err := p.verifySpendLocked(req.Note); err != nil {
		p.log.Warn().Str("op", opID).Err(err).Msg("withdraw rejected")
		return nil, err
	}
	if err := p.verifier.Verify(req.Proof, prover.PublicInputs{
		Root:       p.acc.Root(),
		Nullifiers: [][32]byte{nf},
	}); err != nil {
		p.log.Warn().Str("op", opID).Err(err).Msg("withdraw rejected: external verifier")
		return nil, fmt.Errorf("%w: %v", shield.ErrInvalidProof, err)
	}

	if err := p.registry.MarkSpent(nf); err != nil {
		return nil, err
	}
	transfer := Transfer{
		Asset:       req.Note.Asset,
		Amount:      req.Note.Amount,
		Destination: req.Destination,
	}
	p.transfers = append(p.transfers, transfer)
	p.withdrawals++

	p.log.Info().
		Str("op", opID).
		Hex("nullifier", nf[:]).
		Uint64("amount", transfer.Amount).
		Msg("note withdrawn")

	return &WithdrawReceipt{Nullifier: nf, Transfer: transfer, Root: p.acc.Root()}, nil
}

// SwapRequest exchanges two hidden notes. NoteA and NoteB are the inserted
// inputs owned by the two parties; OutA and OutB are their pending output
// notes (OutA carries B's asset and amount, OutB carries A's). Proof covers
// the whole statement.
type SwapRequest struct {
	NoteA, NoteB *shield.Note
	OutA, OutB   *shield.Note
	OwnerA       shield.OwnerTag // owner of OutA
	OwnerB       shield.OwnerTag // owner of OutB
	Proof        []byte
}

// SwapReceipt reports a successful atomic swap.
type SwapReceipt struct {
	NullifierA, NullifierB shield.Nullifier
	LeafA, LeafB           int64
	Root                   merkle.Node
}

// AtomicSwap checks both nullifiers, both inclusion proofs and value
// conservation, then marks both inputs spent and inserts both output
// commitments as one atomic unit. Any failing check aborts the whole swap
// with no effect.
func (p *Pool) AtomicSwap(req SwapRequest) (*SwapReceipt, error) {
	start := time.Now()
	receipt, err := p.atomicSwap(req)
	if err != nil {
		p.obs.Rejected("swap", err)
		return nil, err
	}
	p.obs.Committed("swap", time.Since(start))
	return receipt, nil
}

func (p *Pool) atomicSwap(req SwapRequest) (*SwapReceipt, error) {
	opID := uuid.New().String()

	p.mu.Lock()
	defer p.mu.Unlock()

	if req.NoteA == nil || req.NoteB == nil || req.OutA == nil || req.OutB == nil {
		return nil, fmt.Errorf("%w: swap requires two inputs and two outputs", shield.ErrMalformedInput)
	}
	if req.NoteA.LeafIndex == shield.LeafUnassigned || req.NoteB.LeafIndex == shield.LeafUnassigned {
		return nil, fmt.Errorf("%w: swap input has no leaf index", shield.ErrMalformedInput)
	}
	if req.OutA.LeafIndex != shield.LeafUnassigned || req.OutB.LeafIndex != shield.LeafUnassigned {
		return nil, fmt.Errorf("%w: swap output already inserted", shield.ErrMalformedInput)
	}
	if req.OutA.Commitment == req.OutB.Commitment {
		return nil, fmt.Errorf("%w: swap outputs share a commitment", shield.ErrMalformedInput)
	}

	// Both nullifiers must be distinct and fresh; a note offered on both
	// sides would consume one input while minting two full-value outputs.
	// Checking before any mutation keeps the both-or-neither contract.
	nfA := req.NoteA.Nullifier()
	nfB := req.NoteB.Nullifier()
	if nfA == nfB {
		p.log.Warn().Str("op", opID).Hex("nullifier", nfA[:]).Msg("swap rejected: same note on both sides")
		return nil, fmt.Errorf("%w: swap inputs share a nullifier", shield.ErrDoubleSpend)
	}
	if p.registry.Spent(nfA) || p.registry.Spent(nfB) {
		p.log.Warn().Str("op", opID).Msg("swap rejected: double spend")
		return nil, shield.ErrDoubleSpend
	}

	if err := p.verifySpendLocked(req.NoteA); err != nil {
		return nil, err
	}
	if err := p.verifySpendLocked(req.NoteB); err != nil {
		return nil, err
	}

	// Value conservation: each output mirrors the other party's input.
	if req.OutA.Asset != req.NoteB.Asset || req.OutA.Amount != req.NoteB.Amount {
		return nil, fmt.Errorf("%w: output A must carry input B's asset and amount", shield.ErrValueConservation)
	}
	if req.OutB.Asset != req.NoteA.Asset || req.OutB.Amount != req.NoteA.Amount {
		return nil, fmt.Errorf("%w: output B must carry input A's asset and amount", shield.ErrValueConservation)
	}

	if err := p.verifier.Verify(req.Proof, prover.PublicInputs{
		Root:        p.acc.Root(),
		Nullifiers:  [][32]byte{nfA, nfB},
		Commitments: [][32]byte{req.OutA.Commitment, req.OutB.Commitment},
	}); err != nil {
		p.log.Warn().Str("op", opID).Err(err).Msg("swap rejected: external verifier")
		return nil, fmt.Errorf("%w: %v", shield.ErrInvalidProof, err)
	}

	// Two insertions follow; reserve the capacity before mutating anything.
	if err := p.checkCapacity(2); err != nil {
		return nil, err
	}

	if err := p.registry.MarkSpentPair(nfA, nfB); err != nil {
		return nil, err
	}
	idxA := p.acc.Append(merkle.Node(req.OutA.Commitment))
	idxB := p.acc.Append(merkle.Node(req.OutB.Commitment))
	req.OutA.LeafIndex = int64(idxA)
	req.OutB.LeafIndex = int64(idxB)
	p.notes = append(p.notes,
		NoteRecord{Commitment: req.OutA.Commitment, Owner: req.OwnerA, Asset: req.OutA.Asset, LeafIndex: req.OutA.LeafIndex},
		NoteRecord{Commitment: req.OutB.Commitment, Owner: req.OwnerB, Asset: req.OutB.Asset, LeafIndex: req.OutB.LeafIndex},
	)
	p.swaps++

	p.log.Info().
		Str("op", opID).
		Int64("leaf_a", req.OutA.LeafIndex).
		Int64("leaf_b", req.OutB.LeafIndex).
		Msg("atomic swap committed")

	return &SwapReceipt{
		NullifierA: nfA,
		NullifierB: nfB,
		LeafA:      req.OutA.LeafIndex,
		LeafB:      req.OutB.LeafIndex,
		Root:       p.acc.Root(),
	}, nil
}

// verifySpendLocked checks that the note's commitment sits at its claimed
// leaf and that a freshly generated inclusion proof verifies against the
// current root. Callers hold p.mu.
func (p *Pool) verifySpendLocked(note *shield.Note) error {
	leaf, err := p.acc.Leaf(int(note.LeafIndex))
	if err != nil {
		return fmt.Errorf("%w: leaf %d not in accumulator", shield.ErrInvalidProof, note.LeafIndex)
	}
	if leaf != merkle.Node(note.Commitment) {
		return fmt.Errorf("%w: commitment does not match leaf %d", shield.ErrInvalidProof, note.LeafIndex)
	}
	incl, err := p.acc.ProofFor(int(note.LeafIndex))
	if err != nil {
		return fmt.Errorf("%w: %v", shield.ErrInvalidProof, err)
	}
	if !incl.VerifyAgainst(p.acc.Root()) {
		return fmt.Errorf("%w: inclusion proof does not reach current root", shield.ErrInvalidProof)
	}
	return nil
}

// checkCapacity fails with ErrCapacity when n more leaves would push the
// tree past the configured maximum height.
func (p *Pool) checkCapacity(n int) error {
	if p.cfg.MaxTreeHeight <= 0 {
		return nil
	}
	if p.acc.Size()+n > 1<<p.cfg.MaxTreeHeight {
		return fmt.Errorf("%w: %d leaves exceed max height %d",
			shield.ErrCapacity, p.acc.Size()+n, p.cfg.MaxTreeHeight)
	}
	return nil
}

// Root returns the current accumulator root.
func (p *Pool) Root() merkle.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acc.Root()
}

// ProofFor returns an inclusion proof bound to the current root.
func (p *Pool) ProofFor(leafIndex int64) (*merkle.Proof, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acc.ProofFor(int(leafIndex))
}

// Notes returns a copy of the indexer-facing note records.
func (p *Pool) Notes() []NoteRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]NoteRecord(nil), p.notes...)
}

// Transfers returns the value transfers emitted by withdraws.
func (p *Pool) Transfers() []Transfer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Transfer(nil), p.transfers...)
}

// Nullifiers returns the registry snapshot for the indexer mirror.
func (p *Pool) Nullifiers() []shield.NullifierRecord {
	return p.registry.Snapshot()
}

// NullifierSpent reports one nullifier's status.
func (p *Pool) NullifierSpent(n shield.Nullifier) bool {
	return p.registry.Spent(n)
}

// Stats summarizes the pool state.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		LeafCount:   p.acc.Size(),
		TreeHeight:  p.acc.Height(),
		Root:        p.acc.Root(),
		SpentCount:  p.registry.Len(),
		Deposits:    p.deposits,
		Withdrawals: p.withdrawals,
		Swaps:       p.swaps,
	}
}
