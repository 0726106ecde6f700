// registry.go - Append-only nullifier set with atomic check-and-set.
//
// A nullifier transitions from absent to spent exactly once; entries are
// never removed. Under concurrent spend attempts against the same note,
// exactly one caller wins and the rest observe ErrDoubleSpend.

package shield

import "sync"

// NullifierRecord is the indexer-facing view of one registry entry.
type NullifierRecord struct {
	Nullifier Nullifier `json:"nullifier"`
	Spent     bool      `json:"spent"`
}

// SpendRegistry is the process-wide nullifier set.
type SpendRegistry struct {
	mu    sync.RWMutex
	spent map[Nullifier]struct{}
}

// NewSpendRegistry creates an empty registry.
func NewSpendRegistry() *SpendRegistry {
	return &SpendRegistry{spent: make(map[Nullifier]struct{})}
}

// Spent reports whether the nullifier has been recorded.
func (r *SpendRegistry) Spent(n Nullifier) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.spent[n]
	return ok
}

// MarkSpent records the nullifier as spent. The absence check and the write
// are one atomic step; a second call for the same nullifier fails with
// ErrDoubleSpend and changes nothing.
func (r *SpendRegistry) MarkSpent(n Nullifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spent[n]; ok {
		return ErrDoubleSpend
	}
	r.spent[n] = struct{}{}
	return nil
}

// MarkSpentPair records two nullifiers as one atomic unit: if either is
// already present, neither is written. Used by the swap path.
func (r *SpendRegistry) MarkSpentPair(a, b Nullifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spent[a]; ok {
		return ErrDoubleSpend
	}
	if _, ok := r.spent[b]; ok {
		return ErrDoubleSpend
	}
	r.spent[a] = struct{}{}
	r.spent[b] = struct{}{}
	return nil
}

// Len returns the number of recorded nullifiers.
func (r *SpendRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.spent)
}

// Snapshot exports all entries for the indexer mirror. Every exported record
// is spent by construction; unspent nullifiers are unknowable to the pool.
func (r *SpendRegistry) Snapshot() []NullifierRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]NullifierRecord, 0, len(r.spent))
	for n := range r.spent {
		out = append(out, NullifierRecord{Nullifier: n, Spent: true})
	}
	return out
}
