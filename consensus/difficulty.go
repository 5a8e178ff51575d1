package consensus

import (
	"math/big"

	"github.com/supernova-chain/supernova/chainhash"
	"github.com/supernova-chain/supernova/chainparams"
)

// RetargetState is the minimal set of facts NextWorkRequired needs about
// the chain so far, grounded on original_source/miner/src/difficulty.rs's
// DifficultyAdjuster fields (last_adjustment_time/height, current_target,
// recent_timestamps) but expressed over real 256-bit targets via math/big
// instead of the original's naive float arithmetic on a raw u32, which
// cannot represent this chain's compact-target range correctly.
type RetargetState struct {
	Height             uint32
	CurrentBits        uint32
	LastAdjustmentTime uint64
	CurrentTime        uint64
	RecentTimestamps   []uint64 // oldest first, most-recent last
}

// clampFullIntervalRatio bounds a numerator/denominator time ratio to [1/4, 4], the
// full-interval dampening factor.
func clampFullIntervalRatio(timeTaken, targetTime int64) (num, den int64) {
	if timeTaken < targetTime/4 {
		return 1, 4
	}
	if timeTaken > targetTime*4 {
		return 4, 1
	}
	return timeTaken, targetTime
}

func clampTarget(target *big.Int, params *chainparams.Params) *big.Int {
	if target.Sign() <= 0 {
		return new(big.Int).Set(params.PowLimit)
	}
	if target.Cmp(params.PowLimit) > 0 {
		return new(big.Int).Set(params.PowLimit)
	}
	minTarget := chainhash.CompactToBig(params.MinTargetBits)
	if target.Cmp(minTarget) < 0 {
		return new(big.Int).Set(minTarget)
	}
	return target
}

// FullIntervalRetarget recomputes the target at a full
// DifficultyAdjustmentInterval boundary: new = current * (timeTaken /
// targetTime), with the ratio dampened to [1/4, 4] and the result clamped
// to the network's allowed target range.
func FullIntervalRetarget(currentBits uint32, timeTakenSeconds int64, params *chainparams.Params) uint32 {
	targetTime := int64(params.TargetBlockTime.Seconds()) * params.RetargetInterval
	num, den := clampFullIntervalRatio(timeTakenSeconds, targetTime)

	current := chainhash.CompactToBig(currentBits)
	newTarget := new(big.Int).Mul(current, big.NewInt(num))
	newTarget.Div(newTarget, big.NewInt(den))

	return chainhash.BigToCompact(clampTarget(newTarget, params))
}

// MovingAverageRetarget applies a gradual, blended adjustment: the
// average spacing of the last
// min(params.MovingAverageWindow, len-1) blocks is compared to the target
// spacing, the resulting ratio is clamped to [0.75, 1.25] expressed as an
// exact fraction, and blended 25% new / 75% unchanged.
func MovingAverageRetarget(currentBits uint32, recentTimestamps []uint64, params *chainparams.Params) uint32 {
	if len(recentTimestamps) < 2 {
		return currentBits
	}
	windowSize := params.MovingAverageWindow
	if windowSize > len(recentTimestamps)-1 {
		windowSize = len(recentTimestamps) - 1
	}
	if windowSize <= 0 {
		return currentBits
	}

	newest := recentTimestamps[len(recentTimestamps)-1]
	oldest := recentTimestamps[len(recentTimestamps)-1-windowSize]
	if newest <= oldest {
		return currentBits
	}
	timeSpan := int64(newest - oldest)

	targetSpacing := int64(params.TargetBlockTime.Seconds())
	averageNum := timeSpan
	averageDen := int64(windowSize)

	// ratio = average / targetSpacing, clamped to [3/4, 5/4].
	ratioNum := averageNum
	ratioDen := averageDen * targetSpacing
	if ratioNum*4 < ratioDen*3 { // ratio < 0.75
		ratioNum, ratioDen = 3, 4
	} else if ratioNum*4 > ratioDen*5 { // ratio > 1.25
		ratioNum, ratioDen = 5, 4
	}

	// weighted = 0.25*ratio + 0.75 = (ratioNum + 3*ratioDen) / (4*ratioDen)
	weightedNum := ratioNum + 3*ratioDen
	weightedDen := 4 * ratioDen

	current := chainhash.CompactToBig(currentBits)
	newTarget := new(big.Int).Mul(current, big.NewInt(weightedNum))
	newTarget.Div(newTarget, big.NewInt(weightedDen))

	return chainhash.BigToCompact(clampTarget(newTarget, params))
}

// NextWorkRequired dispatches between a full-interval retarget (at every
// RetargetInterval-th block) and the gradual moving-average adjustment
// otherwise.
func NextWorkRequired(state RetargetState, params *chainparams.Params) uint32 {
	if int64(state.Height)%params.RetargetInterval == 0 && state.Height > 0 {
		timeTaken := int64(state.CurrentTime) - int64(state.LastAdjustmentTime)
		return FullIntervalRetarget(state.CurrentBits, timeTaken, params)
	}
	if len(state.RecentTimestamps) >= params.MovingAverageWindow/2 {
		return MovingAverageRetarget(state.CurrentBits, state.RecentTimestamps, params)
	}
	return state.CurrentBits
}
