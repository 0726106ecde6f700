// records.go - Indexer-facing record views.
//
// Everything here is derived from public pool state; a mirror can serve these
// without ever holding note secrets.

package indexer

import (
	"encoding/hex"
	"fmt"

	"github.com/styxlabs/shieldpool/internal/pool"
	"github.com/styxlabs/shieldpool/internal/shield"
)

// NoteView is the JSON shape of one published note record.
type NoteView struct {
	Commitment string `json:"commitment"`
	Owner      string `json:"owner"`
	AssetID    string `json:"assetId"`
	LeafIndex  int64  `json:"leafIndex"`
}

// NullifierView is the JSON shape of one nullifier status.
type NullifierView struct {
	Nullifier string `json:"nullifier"`
	Spent     bool   `json:"spent"`
}

// StatsView is the JSON shape of getPrivacyPoolStats.
type StatsView struct {
	LeafCount   int    `json:"leafCount"`
	TreeHeight  int    `json:"treeHeight"`
	Root        string `json:"root"`
	SpentCount  int    `json:"spentCount"`
	Deposits    uint64 `json:"deposits"`
	Withdrawals uint64 `json:"withdrawals"`
	Swaps       uint64 `json:"swaps"`
}

func noteView(r pool.NoteRecord) NoteView {
	return NoteView{
		Commitment: hex.EncodeToString(r.Commitment[:]),
		Owner:      hex.EncodeToString(r.Owner[:]),
		AssetID:    hex.EncodeToString(r.Asset[:]),
		LeafIndex:  r.LeafIndex,
	}
}

func statsView(s pool.Stats) StatsView {
	return StatsView{
		LeafCount:   s.LeafCount,
		TreeHeight:  s.TreeHeight,
		Root:        hex.EncodeToString(s.Root[:]),
		SpentCount:  s.SpentCount,
		Deposits:    s.Deposits,
		Withdrawals: s.Withdrawals,
		Swaps:       s.Swaps,
	}
}

// parseBytes32 decodes a 64-character hex field.
func parseBytes32(field, s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return out, fmt.Errorf("%w: %s must be 32 hex-encoded bytes", shield.ErrMalformedInput, field)
	}
	copy(out[:], raw)
	return out, nil
}
