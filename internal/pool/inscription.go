// inscription.go - Publishing the pool root for permanent reference.

package pool

import "github.com/styxlabs/shieldpool/internal/wire"

// Inscription captures the current root and leaf count as a pool state
// inscription record.
func (p *Pool) Inscription() *wire.Inscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &wire.Inscription{
		Root:      [32]byte(p.acc.Root()),
		LeafCount: uint32(p.acc.Size()),
		PoolID:    p.cfg.PoolID,
	}
}
