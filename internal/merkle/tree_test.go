package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(b byte) Node {
	var n Node
	n[0] = b
	return n
}

func leaves(n int) []Node {
	out := make([]Node, n)
	for i := range out {
		out[i] = leaf(byte(i + 1))
	}
	return out
}

func TestEmptyAccumulator(t *testing.T) {
	a := NewAccumulator()
	require.Equal(t, 0, a.Size())
	require.Equal(t, 1, a.Height())
	require.Equal(t, hashPair(zeroNode, zeroNode), a.Root())

	_, err := a.Leaf(0)
	require.Error(t, err)
	_, err = a.ProofFor(0)
	require.Error(t, err)
}

func TestHeightGrowsWithLeafCount(t *testing.T) {
	cases := []struct {
		leaves int
		height int
	}{
		{0, 1}, {1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {8, 3}, {9, 4}, {16, 4}, {17, 5},
	}
	for _, tc := range cases {
		a := BuildTree(leaves(tc.leaves))
		assert.Equal(t, tc.height, a.Height(), "%d leaves", tc.leaves)
	}
}

func TestRootDeterministic(t *testing.T) {
	a := BuildTree(leaves(5))
	b := BuildTree(leaves(5))
	require.Equal(t, a.Root(), b.Root())

	// Reordering the sequence changes the root.
	reordered := leaves(5)
	reordered[0], reordered[1] = reordered[1], reordered[0]
	c := BuildTree(reordered)
	require.NotEqual(t, a.Root(), c.Root())
}

func TestIncrementalMatchesOneShot(t *testing.T) {
	seq := leaves(9)
	inc := NewAccumulator()
	for i, l := range seq {
		idx := inc.Append(l)
		require.Equal(t, i, idx)

		oneShot := BuildTree(seq[:i+1])
		require.Equal(t, oneShot.Root(), inc.Root(), "after %d appends", i+1)
		require.Equal(t, oneShot.Height(), inc.Height())
	}
}

func TestAppendPastCapacityResizes(t *testing.T) {
	a := NewAccumulator()
	a.Append(leaf(1))
	a.Append(leaf(2))
	require.Equal(t, 1, a.Height())

	before := a.Root()
	a.Append(leaf(3)) // 3 leaves no longer fit under height 1
	require.Equal(t, 2, a.Height())
	require.NotEqual(t, before, a.Root())

	got, err := a.Leaf(2)
	require.NoError(t, err)
	require.Equal(t, leaf(3), got)
}

func TestProofRoundTrip(t *testing.T) {
	a := BuildTree(leaves(7))
	for i := 0; i < a.Size(); i++ {
		p, err := a.ProofFor(i)
		require.NoError(t, err)
		require.Len(t, p.Path, a.Height())
		require.True(t, p.Verify(), "leaf %d", i)
		require.True(t, p.VerifyAgainst(a.Root()), "leaf %d", i)
	}
}

func TestProofRejectsTampering(t *testing.T) {
	a := BuildTree(leaves(6))
	p, err := a.ProofFor(3)
	require.NoError(t, err)
	require.True(t, p.Verify())

	// Single-bit leaf tamper.
	tampered := *p
	tampered.Leaf[0] ^= 0x01
	require.False(t, tampered.Verify())

	// Single-byte path tamper.
	tampered = *p
	tampered.Path = append([]Node(nil), p.Path...)
	tampered.Path[1][5] ^= 0xff
	require.False(t, tampered.Verify())

	// Flipped direction swaps the concatenation order.
	tampered = *p
	tampered.Directions = append([]byte(nil), p.Directions...)
	tampered.Directions[0] ^= 1
	require.False(t, tampered.Verify())

	// Wrong root.
	wrong := a.Root()
	wrong[0] ^= 0x01
	require.False(t, p.VerifyAgainst(wrong))
}

func TestProofStaleAfterGrowth(t *testing.T) {
	a := BuildTree(leaves(4))
	p, err := a.ProofFor(1)
	require.NoError(t, err)
	require.True(t, p.VerifyAgainst(a.Root()))

	a.Append(leaf(99))
	require.False(t, p.VerifyAgainst(a.Root()),
		"proof bound to the old root must not verify against the grown tree")

	fresh, err := a.ProofFor(1)
	require.NoError(t, err)
	require.True(t, fresh.VerifyAgainst(a.Root()))
}

func TestVerifyProofLengthMismatch(t *testing.T) {
	a := BuildTree(leaves(4))
	p, err := a.ProofFor(0)
	require.NoError(t, err)
	require.False(t, VerifyProof(p.Leaf, p.Path, p.Directions[:1], p.Root))
}

func TestZeroPaddingDistinctFromAbsence(t *testing.T) {
	// A tree of 3 leaves pads the fourth slot with the zero node; appending an
	// explicit zero leaf yields the same root but a larger size.
	padded := BuildTree(leaves(3))
	explicit := BuildTree(append(leaves(3), zeroNode))
	require.Equal(t, padded.Root(), explicit.Root())
	require.Equal(t, 3, padded.Size())
	require.Equal(t, 4, explicit.Size())

	_, err := padded.Leaf(3)
	require.Error(t, err)
	_, err = explicit.Leaf(3)
	require.NoError(t, err)
}
