package entitlement

import (
	"time"
)

// Decision is the outcome of an admission check
type Decision int

const (
	// Denied - the request must not proceed; caller should offer an upgrade path
	Denied Decision = iota

	// Admitted - the request may proceed; consumption already recorded
	Admitted
)

func (d Decision) String() string {
	switch d {
	case Admitted:
		return "admitted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Keep at least this many timestamps regardless of the free-run limit,
// so raising the limit later doesn't undercount the current window
const minStoredRuns = 32

// State is the per-visitor entitlement record, stored in the session
type State struct {
	Pro      bool    `json:"pro"`
	Credits  int     `json:"credits"`
	FreeRuns []int64 `json:"free_runs"` // epoch seconds of free admissions
}

// AdmitAndConsume decides whether a gated request may proceed and records
// the consumption on the state in the same step. Priority order: pro status
// bypasses everything, purchased credits are spent before free quota, and
// only then the sliding free window is consulted.
//
// Mutations happen only on the admitted path (plus pruning of stale free-run
// timestamps, which never changes the windowed count). Callers must persist
// the state before issuing any downstream work; a later failure does not
// refund what was consumed here.
func AdmitAndConsume(state *State, now time.Time, limit int, window time.Duration) Decision {
	if state.Pro {
		return Admitted
	}

	if state.Credits > 0 {
		state.Credits--
		return Admitted
	}

	// Prune entries older than the window
	windowStart := now.Add(-window).Unix()
	kept := state.FreeRuns[:0]
	for _, ts := range state.FreeRuns {
		if ts >= windowStart {
			kept = append(kept, ts)
		}
	}
	state.FreeRuns = kept

	if len(state.FreeRuns) >= limit {
		return Denied
	}

	state.FreeRuns = append(state.FreeRuns, now.Unix())

	// Bound the stored tail
	max := limit
	if max < minStoredRuns {
		max = minStoredRuns
	}
	if len(state.FreeRuns) > max {
		state.FreeRuns = state.FreeRuns[len(state.FreeRuns)-max:]
	}

	return Admitted
}

// Remaining returns how many free runs are left in the current window.
// Read-only; stale entries are skipped, not pruned.
func Remaining(state *State, now time.Time, limit int, window time.Duration) int {
	if state.Pro {
		return limit
	}

	windowStart := now.Add(-window).Unix()
	count := 0
	for _, ts := range state.FreeRuns {
		if ts >= windowStart {
			count++
		}
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
