package syncmgr

import "testing"

func TestStateString(t *testing.T) {
	cases := map[State]string{
		Idle:            "idle",
		SyncingHeaders:  "syncing_headers",
		SyncingBlocks:   "syncing_blocks",
		VerifyingBlocks: "verifying_blocks",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}
