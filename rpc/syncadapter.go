package rpc

import "github.com/supernova-chain/supernova/syncmgr"

// SyncManagerChecker adapts a syncmgr.Manager to ChainSyncChecker: the
// chain is considered synced whenever the sync state machine is sitting
// in Idle, meaning no header, block, or verification fetch is currently
// in flight.
type SyncManagerChecker struct {
	Manager *syncmgr.Manager
}

// Synced implements ChainSyncChecker.
func (c SyncManagerChecker) Synced() bool {
	return c.Manager.State() == syncmgr.Idle
}
