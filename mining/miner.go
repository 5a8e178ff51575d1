package mining

import (
	"fmt"
	"sync/atomic"

	"github.com/supernova-chain/supernova/chainparams"
	"github.com/supernova-chain/supernova/chainstate"
	"github.com/supernova-chain/supernova/mempool"
)

// Miner repeatedly builds a block template on top of the current tip,
// searches for a valid nonce, and submits the solved block to the chain,
// restarting whenever the tip moves out from under it. Grounded on
// domain/mining.BlkTmplGenerator's template/dag pairing, extended with
// a worker-pool proof-of-work search.
type Miner struct {
	generator *Generator
	chain     *chainstate.Chain
	params    *chainparams.Params
	config    SolveConfig

	rewardAddress   string
	treasuryAddress string

	running atomic.Bool
}

// NewMiner constructs a Miner that pays block rewards to rewardAddress
// and the treasury split to treasuryAddress.
func NewMiner(chain *chainstate.Chain, pool *mempool.Pool, params *chainparams.Params, maxBlockSize uint64, rewardAddress, treasuryAddress string, config SolveConfig) *Miner {
	return &Miner{
		generator:       NewGenerator(chain, pool, params, maxBlockSize),
		chain:           chain,
		params:          params,
		config:          config,
		rewardAddress:   rewardAddress,
		treasuryAddress: treasuryAddress,
	}
}

// MineOne builds one block template and searches it to completion,
// submitting the solved block to chain on success. It blocks until a
// solution is found, stop is set, or the nonce space is exhausted.
func (m *Miner) MineOne(now uint64, stop *atomic.Bool) (found bool, err error) {
	template, err := m.generator.NewBlockTemplate(m.rewardAddress, m.treasuryAddress, now)
	if err != nil {
		return false, fmt.Errorf("mining: build template: %w", err)
	}
	if !SolveBlock(template.Block, m.config, stop) {
		return false, nil
	}
	if err := m.chain.AcceptBlock(template.Block, now); err != nil {
		return false, fmt.Errorf("mining: submit solved block: %w", err)
	}
	return true, nil
}

// Run mines continuously until stop is set, restarting the template on
// every successful submission (or whenever the tip otherwise moves,
// which the next MineOne call naturally picks up by rebuilding against
// the current tip). nowFunc supplies wall-clock time so callers can
// inject a fixed clock under test.
func (m *Miner) Run(stop *atomic.Bool, nowFunc func() uint64) error {
	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("mining: miner is already running")
	}
	defer m.running.Store(false)

	for !stop.Load() {
		if _, err := m.MineOne(nowFunc(), stop); err != nil {
			return err
		}
	}
	return nil
}
