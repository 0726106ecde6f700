package shield

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assetID(b byte) AssetID {
	var a AssetID
	a[0] = b
	return a
}

func bytes32(b byte) [32]byte {
	var out [32]byte
	out[0] = b
	return out
}

func TestCommitNoteDeterministic(t *testing.T) {
	asset := assetID(1)
	seed := bytes32(2)
	secret := bytes32(3)

	c1 := CommitNote(asset, 1000, seed, secret)
	c2 := CommitNote(asset, 1000, seed, secret)
	require.Equal(t, c1, c2, "identical inputs must commit to the same digest")
}

func TestCommitNoteBindsEveryField(t *testing.T) {
	asset := assetID(1)
	seed := bytes32(2)
	secret := bytes32(3)
	base := CommitNote(asset, 1000, seed, secret)

	cases := map[string]Commitment{
		"asset":  CommitNote(assetID(9), 1000, seed, secret),
		"amount": CommitNote(asset, 1001, seed, secret),
		"seed":   CommitNote(asset, 1000, bytes32(9), secret),
		"secret": CommitNote(asset, 1000, seed, bytes32(9)),
	}
	for field, c := range cases {
		assert.NotEqual(t, base, c, "changing %s must change the commitment", field)
	}
}

func TestCommitValueBindsBlinding(t *testing.T) {
	v1 := CommitValue(500, bytes32(1))
	v2 := CommitValue(500, bytes32(2))
	v3 := CommitValue(501, bytes32(1))
	assert.NotEqual(t, v1, v2)
	assert.NotEqual(t, v1, v3)
	assert.Equal(t, v1, CommitValue(500, bytes32(1)))
}

func TestDerivationDomainsDisjoint(t *testing.T) {
	// The same 32-byte input fed through different derivations must never
	// collide; the domain tags keep the spaces apart.
	in := bytes32(7)
	cm := CommitNote(assetID(0), 0, in, in)
	nf := DeriveNullifier(in, 0)
	owner := DeriveOwnerTag(in)
	assert.NotEqual(t, [32]byte(cm), [32]byte(nf))
	assert.NotEqual(t, [32]byte(cm), [32]byte(owner))
	assert.NotEqual(t, [32]byte(nf), [32]byte(owner))
}

func TestDeriveNullifierPositionDependent(t *testing.T) {
	seed := bytes32(4)
	n0 := DeriveNullifier(seed, 0)
	n1 := DeriveNullifier(seed, 1)
	require.NotEqual(t, n0, n1, "same seed at different leaves must yield distinct nullifiers")
	require.Equal(t, n0, DeriveNullifier(seed, 0))

	other := DeriveNullifier(bytes32(5), 0)
	require.NotEqual(t, n0, other)
}

func TestNewNoteFreshSecrets(t *testing.T) {
	a := NewNote(assetID(1), 100)
	b := NewNote(assetID(1), 100)

	require.Equal(t, LeafUnassigned, a.LeafIndex)
	assert.NotEqual(t, a.Secret, b.Secret)
	assert.NotEqual(t, a.NullifierSeed, b.NullifierSeed)
	assert.NotEqual(t, a.Commitment, b.Commitment,
		"fresh notes of equal value must not share a commitment")
	assert.Equal(t, CommitNote(a.Asset, a.Amount, a.NullifierSeed, a.Secret), a.Commitment)
}

func TestNoteStateLifecycle(t *testing.T) {
	reg := NewSpendRegistry()
	note := NewNote(assetID(1), 42)

	require.Equal(t, StatePending, StateOf(note, reg))

	note.LeafIndex = 3
	require.Equal(t, StateInserted, StateOf(note, reg))

	require.NoError(t, reg.MarkSpent(note.Nullifier()))
	require.Equal(t, StateSpent, StateOf(note, reg))

	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "inserted", StateInserted.String())
	assert.Equal(t, "spent", StateSpent.String())
}

func TestRegistryMarkSpentOnce(t *testing.T) {
	reg := NewSpendRegistry()
	nf := Nullifier(bytes32(1))

	require.False(t, reg.Spent(nf))
	require.NoError(t, reg.MarkSpent(nf))
	require.True(t, reg.Spent(nf))
	require.ErrorIs(t, reg.MarkSpent(nf), ErrDoubleSpend)
	require.Equal(t, 1, reg.Len())
}

func TestRegistryMarkSpentPairBothOrNeither(t *testing.T) {
	a := Nullifier(bytes32(1))
	b := Nullifier(bytes32(2))

	reg := NewSpendRegistry()
	require.NoError(t, reg.MarkSpentPair(a, b))
	require.True(t, reg.Spent(a))
	require.True(t, reg.Spent(b))

	// Second member already present: the pair write must not touch the first.
	reg = NewSpendRegistry()
	require.NoError(t, reg.MarkSpent(b))
	require.ErrorIs(t, reg.MarkSpentPair(a, b), ErrDoubleSpend)
	require.False(t, reg.Spent(a), "failed pair mark must leave the fresh nullifier unspent")
	require.Equal(t, 1, reg.Len())
}

func TestRegistryConcurrentSpendSingleWinner(t *testing.T) {
	reg := NewSpendRegistry()
	nf := Nullifier(bytes32(9))

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = reg.MarkSpent(nf)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrDoubleSpend)
		}
	}
	require.Equal(t, 1, wins, "exactly one concurrent spend may win")
}

func TestRegistrySnapshot(t *testing.T) {
	reg := NewSpendRegistry()
	require.Empty(t, reg.Snapshot())

	require.NoError(t, reg.MarkSpent(Nullifier(bytes32(1))))
	require.NoError(t, reg.MarkSpent(Nullifier(bytes32(2))))

	snap := reg.Snapshot()
	require.Len(t, snap, 2)
	for _, rec := range snap {
		assert.True(t, rec.Spent)
	}
}

func TestWalletSaveLoad(t *testing.T) {
	w := NewWallet("alice")
	n1 := NewNote(assetID(1), 100)
	n2 := NewNote(assetID(2), 200)
	w.AddNote(n1)
	w.AddNote(n2)
	require.NoError(t, w.MarkNoteAsSpent(0))
	require.Error(t, w.MarkNoteAsSpent(5))

	unspent := w.UnspentNotes()
	require.Len(t, unspent, 1)
	require.Equal(t, n2.Commitment, unspent[0].Commitment)
	require.Len(t, w.UnspentNotesForAsset(assetID(2)), 1)
	require.Empty(t, w.UnspentNotesForAsset(assetID(1)))

	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, w.Save(path))

	loaded, err := LoadWallet(path)
	require.NoError(t, err)
	require.Equal(t, w.Name, loaded.Name)
	require.Equal(t, w.Owner(), loaded.Owner())
	require.Len(t, loaded.Notes, 2)
	require.Equal(t, n1.Commitment, loaded.Notes[0].Commitment)
	require.True(t, loaded.Spent[0])
	require.False(t, loaded.Spent[1])
}

func TestLoadWalletMissingFile(t *testing.T) {
	_, err := LoadWallet(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
