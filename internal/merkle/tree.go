// tree.go - Append-only Merkle accumulator over note commitments.
//
// The tree is always a complete binary tree of 2^height leaves; slots past
// the appended leaves hold the all-zero placeholder. The root is a pure
// function of the ordered leaf sequence, so incremental appends and one-shot
// builds from the same sequence agree at every point in time.

package merkle

import (
	"crypto/sha256"
	"fmt"

	"github.com/styxlabs/shieldpool/internal/shield"
)

// Node is a 32-byte tree digest.
type Node [32]byte

// zeroNode fills unused leaf slots.
var zeroNode Node

// Accumulator maintains the canonical ordered sequence of published
// commitments and answers inclusion-proof queries.
//
// Accumulator is not safe for concurrent use; the pool serializes access.
type Accumulator struct {
	leaves []Node
	// levels[0] is the padded leaf row, levels[height] is [root].
	levels [][]Node
	height int
}

// NewAccumulator creates an empty accumulator of height 1.
func NewAccumulator() *Accumulator {
	a := &Accumulator{}
	a.rebuild()
	return a
}

// BuildTree constructs an accumulator from a full leaf sequence.
func BuildTree(leaves []Node) *Accumulator {
	a := &Accumulator{leaves: append([]Node(nil), leaves...)}
	a.rebuild()
	return a
}

// Append adds one leaf, recomputes the tree and returns the assigned index.
// Exceeding the current 2^height capacity grows the tree to the next power
// of two; that resize is a normal rebuild, not an error.
func (a *Accumulator) Append(leaf Node) int {
	a.leaves = append(a.leaves, leaf)
	a.rebuild()
	return len(a.leaves) - 1
}

// Root returns the current tree root.
func (a *Accumulator) Root() Node {
	return a.levels[a.height][0]
}

// Height returns the current number of tree levels above the leaf row.
func (a *Accumulator) Height() int {
	return a.height
}

// Size returns the number of appended (unpadded) leaves.
func (a *Accumulator) Size() int {
	return len(a.leaves)
}

// Leaf returns the appended leaf at index.
func (a *Accumulator) Leaf(index int) (Node, error) {
	if index < 0 || index >= len(a.leaves) {
		return Node{}, fmt.Errorf("%w: leaf index %d out of range [0,%d)",
			shield.ErrMalformedInput, index, len(a.leaves))
	}
	return a.leaves[index], nil
}

// ProofFor returns the inclusion proof for the appended leaf at index,
// bound to the root at call time.
func (a *Accumulator) ProofFor(index int) (*Proof, error) {
	if index < 0 || index >= len(a.leaves) {
		return nil, fmt.Errorf("%w: leaf index %d out of range [0,%d)",
			shield.ErrMalformedInput, index, len(a.leaves))
	}
	p := &Proof{
		Leaf:       a.leaves[index],
		Path:       make([]Node, a.height),
		Directions: make([]byte, a.height),
		Root:       a.Root(),
	}
	pos := index
	for level := 0; level < a.height; level++ {
		sibling := pos ^ 1
		p.Path[level] = a.levels[level][sibling]
		// direction 0: known node is the left child at this level.
		p.Directions[level] = byte(pos & 1)
		pos >>= 1
	}
	return p, nil
}

// rebuild recomputes height and every level from the leaf sequence.
// Height is the smallest power-of-two exponent covering the leaf count,
// never below 1.
func (a *Accumulator) rebuild() {
	a.height = heightFor(len(a.leaves))
	width := 1 << a.height

	a.levels = make([][]Node, a.height+1)
	row := make([]Node, width)
	copy(row, a.leaves)
	for i := len(a.leaves); i < width; i++ {
		row[i] = zeroNode
	}
	a.levels[0] = row

	for level := 0; level < a.height; level++ {
		below := a.levels[level]
		above := make([]Node, len(below)/2)
		for i := range above {
			above[i] = hashPair(below[2*i], below[2*i+1])
		}
		a.levels[level+1] = above
	}
}

// heightFor returns max(1, ceil(log2(n))).
func heightFor(n int) int {
	h := 1
	for (1 << h) < n {
		h++
	}
	return h
}

// hashPair computes the parent digest hash(left || right).
func hashPair(left, right Node) Node {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var out Node
	copy(out[:], h.Sum(nil))
	return out
}
