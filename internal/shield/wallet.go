// wallet.go - Owner-side note storage.
//
// A Wallet holds the secret material for the notes a participant owns. It is
// persisted as a local JSON file and never shared with the pool core; the
// core only ever receives commitments, nullifiers and proofs.

package shield

import (
	"encoding/json"
	"fmt"
	"os"
)

// Wallet stores a participant's notes and tracks which have been consumed.
type Wallet struct {
	Name        string   `json:"name"`
	OwnerSecret [32]byte `json:"owner_secret"`
	Notes       []*Note  `json:"notes"`
	Spent       []bool   `json:"spent"`
}

// NewWallet creates an empty wallet with a fresh owner secret.
func NewWallet(name string) *Wallet {
	return &Wallet{
		Name:        name,
		OwnerSecret: randomBytes32(),
	}
}

// Owner returns the opaque owner identifier exposed to the indexer.
func (w *Wallet) Owner() OwnerTag {
	return DeriveOwnerTag(w.OwnerSecret)
}

// AddNote records a note the participant owns.
func (w *Wallet) AddNote(note *Note) {
	w.Notes = append(w.Notes, note)
	w.Spent = append(w.Spent, false)
}

// MarkNoteAsSpent marks a note as consumed by its wallet index.
func (w *Wallet) MarkNoteAsSpent(noteIndex int) error {
	if noteIndex < 0 || noteIndex >= len(w.Spent) {
		return fmt.Errorf("invalid note index: %d", noteIndex)
	}
	w.Spent[noteIndex] = true
	return nil
}

// UnspentNotes returns all notes that have not been consumed yet.
func (w *Wallet) UnspentNotes() []*Note {
	var unspent []*Note
	for i, spent := range w.Spent {
		if !spent {
			unspent = append(unspent, w.Notes[i])
		}
	}
	return unspent
}

// UnspentNotesForAsset returns unconsumed notes of one asset.
func (w *Wallet) UnspentNotesForAsset(asset AssetID) []*Note {
	var unspent []*Note
	for i, spent := range w.Spent {
		if !spent && w.Notes[i].Asset == asset {
			unspent = append(unspent, w.Notes[i])
		}
	}
	return unspent
}

// Save writes the wallet to a JSON file.
func (w *Wallet) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(w)
}

// LoadWallet loads a wallet from a JSON file.
func LoadWallet(path string) (*Wallet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var w Wallet
	if err := json.NewDecoder(f).Decode(&w); err != nil {
		return nil, err
	}
	return &w, nil
}
