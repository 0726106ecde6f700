// note.go - Note type and lifecycle for the shielded pool.
//
// A Note is a hidden unit of value owned by a participant. Its secret and
// nullifier seed never leave the owner; only the commitment is published.

package shield

// LeafUnassigned marks a note whose commitment has not entered the
// accumulator yet.
const LeafUnassigned = int64(-1)

// NoteState is the derived lifecycle state of a note.
type NoteState int

const (
	// StatePending - created locally, commitment not yet in the accumulator.
	StatePending NoteState = iota
	// StateInserted - commitment accepted, leaf index assigned, spendable.
	StateInserted
	// StateSpent - nullifier recorded in the spend registry. Terminal.
	StateSpent
)

func (s NoteState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInserted:
		return "inserted"
	case StateSpent:
		return "spent"
	default:
		return "unknown"
	}
}

// Note represents a hidden unit of value.
// Two notes with identical (asset, amount, nullifierSeed, secret) are
// indistinguishable and commit to the same digest.
type Note struct {
	Asset         AssetID    `json:"asset"`
	Amount        uint64     `json:"amount"`
	Secret        [32]byte   `json:"secret"`         // known only to the owner
	NullifierSeed [32]byte   `json:"nullifier_seed"` // distinct from Secret
	Commitment    Commitment `json:"commitment"`
	LeafIndex     int64      `json:"leaf_index"` // LeafUnassigned before insertion
}

// NewNote creates a note with fresh random secret material and a computed
// commitment. The leaf index stays unassigned until the pool inserts it.
func NewNote(asset AssetID, amount uint64) *Note {
	secret := randomBytes32()
	seed := randomBytes32()
	return &Note{
		Asset:         asset,
		Amount:        amount,
		Secret:        secret,
		NullifierSeed: seed,
		Commitment:    CommitNote(asset, amount, seed, secret),
		LeafIndex:     LeafUnassigned,
	}
}

// Nullifier derives the spend tag for this note instance. Calling it on a
// pending note is a caller error; the tag is position-dependent.
func (n *Note) Nullifier() Nullifier {
	return DeriveNullifier(n.NullifierSeed, uint32(n.LeafIndex))
}

// StateOf derives the note's lifecycle state from its leaf index and the
// spend registry. State is never stored independently.
func StateOf(n *Note, reg *SpendRegistry) NoteState {
	if n.LeafIndex == LeafUnassigned {
		return StatePending
	}
	if reg.Spent(n.Nullifier()) {
		return StateSpent
	}
	return StateInserted
}
