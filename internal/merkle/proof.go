// proof.go - Inclusion proofs: sibling path plus left/right directions.

package merkle

// Proof is an inclusion proof for one leaf under a specific root.
// Path holds the sibling digests from leaf to root; Directions records, per
// level, whether the known node was the left (0) or right (1) child.
type Proof struct {
	Leaf       Node   `json:"leaf"`
	Path       []Node `json:"path"`
	Directions []byte `json:"directions"`
	Root       Node   `json:"root"`
}

// Verify recomputes the path against the proof's own root.
func (p *Proof) Verify() bool {
	return VerifyProof(p.Leaf, p.Path, p.Directions, p.Root)
}

// VerifyAgainst recomputes the path against an externally supplied root,
// typically the accumulator's current one. A proof generated before the tree
// grew fails here rather than silently passing on its stale root.
func (p *Proof) VerifyAgainst(root Node) bool {
	return VerifyProof(p.Leaf, p.Path, p.Directions, root)
}

// VerifyProof hashes from leaf to root, using directions to decide the
// concatenation order at each level, and succeeds iff the final digest
// equals root.
func VerifyProof(leaf Node, path []Node, directions []byte, root Node) bool {
	if len(path) != len(directions) {
		return false
	}
	cur := leaf
	for level, sibling := range path {
		if directions[level] == 0 {
			cur = hashPair(cur, sibling)
		} else {
			cur = hashPair(sibling, cur)
		}
	}
	return cur == root
}
