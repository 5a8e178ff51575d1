package syncmgr

import (
	"sync/atomic"
	"time"
)

// TickInterval is how often Run calls Tick while idle and not stalled.
const TickInterval = time.Second

// Run drives Tick in a loop until stop is set, using nowFunc to supply
// the current Unix-second timestamp Tick's stale-tip check compares
// against.
func (m *Manager) Run(stop *atomic.Bool, nowFunc func() uint64) error {
	for !stop.Load() {
		if err := m.Tick(nowFunc()); err != nil {
			continue
		}
		if m.State() == Idle {
			time.Sleep(TickInterval)
		}
	}
	return nil
}
