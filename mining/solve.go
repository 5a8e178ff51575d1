package mining

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/wire"
)

// SolveConfig bounds how a block template is searched for a valid nonce.
type SolveConfig struct {
	// Workers is the number of goroutines searching disjoint nonce-space
	// slices in parallel. Defaults to 1 if zero.
	Workers int
	// Intensity throttles each worker's duty cycle in (0,1]; 1 means run
	// flat out. Values at or below 0, or above 1, are treated as 1.
	Intensity float64
}

func (c SolveConfig) workers() int {
	if c.Workers <= 0 {
		return 1
	}
	return c.Workers
}

func (c SolveConfig) intensity() float64 {
	if c.Intensity <= 0 || c.Intensity > 1 {
		return 1
	}
	return c.Intensity
}

const hashBatchSize = 2048

// SolveBlock searches for a nonce making block's header hash satisfy its
// declared target, splitting the uint32 nonce space across config.Workers
// goroutines. The first worker to find a solution sets the header's nonce
// and signals the rest to stop via a shared atomic running flag,
// grounded on domain/consensus/utils/mining/solve.go's single-threaded
// increment-and-hash loop, parallelized here and bounded by cancel.
//
// It returns true if a solution was found before cancel fired or the
// nonce space was exhausted, false otherwise.
func SolveBlock(block *wire.Block, config SolveConfig, cancel *atomic.Bool) bool {
	workers := config.workers()
	intensity := config.intensity()

	var found atomic.Bool
	var winner uint32
	var mu sync.Mutex

	var wg sync.WaitGroup
	stride := uint64(workers)
	base := uint64(rand.Uint32())
	for w := 0; w < workers; w++ {
		start := base + uint64(w)
		wg.Add(1)
		go func(start uint64) {
			defer wg.Done()
			solveRange(block, start, stride, intensity, cancel, &found, &winner, &mu)
		}(start)
	}
	wg.Wait()

	if !found.Load() {
		return false
	}
	mu.Lock()
	block.Header.Nonce = winner
	mu.Unlock()
	return true
}

func solveRange(block *wire.Block, start, stride uint64, intensity float64, cancel *atomic.Bool, found *atomic.Bool, winner *uint32, mu *sync.Mutex) {
	target := chainhash.CompactToBig(block.Header.Bits)
	header := block.Header

	var sleepPerBatch time.Duration
	if intensity < 1 {
		sleepPerBatch = time.Duration(float64(time.Millisecond) * (1 - intensity) / intensity)
	}

	for i := uint64(0); i < math.MaxUint32; i += stride {
		if cancel.Load() || found.Load() {
			return
		}
		nonce := uint32((start + i) % math.MaxUint32)
		header.Nonce = nonce
		hash := header.BlockHash()
		if chainhash.HashToBig(&hash).Cmp(target) <= 0 {
			if found.CompareAndSwap(false, true) {
				mu.Lock()
				*winner = nonce
				mu.Unlock()
			}
			return
		}
		if sleepPerBatch > 0 && (i/stride)%hashBatchSize == 0 {
			time.Sleep(sleepPerBatch)
		}
	}
}
