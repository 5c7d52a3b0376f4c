package ros

import (
	"sync"
	"time"
)

// Timer drives a periodic callback from the Executor's selection loop.
// Deadlines that pass while a long callback is running are not queued:
// a Timer fires at most once per selection cycle, and its next call
// time is computed from the period rather than from "now", so the
// firing rate does not drift under callback jitter.
type Timer struct {
	mu       sync.Mutex
	period   Duration
	callback func()
	next     Time
	canceled bool
}

// NewTimer constructs a periodic Timer with the given period, armed to
// fire for the first time one period from now.
func NewTimer(period Duration, callback func()) *Timer {
	now := Now()
	return &Timer{
		period:   period,
		callback: callback,
		next:     now.Add(period),
	}
}

// isReady reports whether the timer's deadline has passed. Unlike the
// other entities' WaitableHandle, a Timer's readiness is computed
// directly against the steady clock rather than through the RMW,
// since the RMW does not own time for timers.
func (t *Timer) isReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled {
		return false
	}
	now := Now()
	return now.ToNSec() >= t.next.ToNSec()
}

// getNextCallTime returns a non-negative duration until the timer's
// next firing (zero if it is already due). Computed from raw
// nanosecond counts rather than Time.Diff, since Diff normalizes
// through a signed/unsigned conversion that panics on a negative
// (overdue) result.
func (t *Timer) getNextCallTime() Duration {
	t.mu.Lock()
	next := t.next
	t.mu.Unlock()
	nextNS := next.ToNSec()
	now := Now()
	nowNS := now.ToNSec()
	if nextNS <= nowNS {
		return NewDuration(0, 0)
	}
	remaining := nextNS - nowNS
	return NewDuration(uint32(remaining/1e9), uint32(remaining%1e9))
}

// fire advances the deadline to the first multiple of the period past
// the previous deadline (not from "now") that is back in the future,
// and invokes the callback exactly once. Advancing from the prior
// deadline rather than the observed firing time keeps a timer's
// average rate accurate even when dispatch is delayed; catching up by
// whole periods in one step, rather than one period per call, means a
// timer that fell arbitrarily far behind (a long sibling callback ran
// ahead of it) still fires only once per selection cycle instead of
// bursting once per missed period.
func (t *Timer) fire() {
	t.mu.Lock()
	now := Now()
	nowNS := now.ToNSec()
	nextNS := t.next.ToNSec()
	periodNS := t.period.ToNSec()
	if periodNS > 0 && nextNS <= nowNS {
		missed := (nowNS-nextNS)/periodNS + 1
		nextNS += missed * periodNS
	} else {
		nextNS += periodNS
	}
	t.next.FromNSec(nextNS)
	cb := t.callback
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// cancel permanently stops a timer from becoming ready again.
func (t *Timer) cancel() {
	t.mu.Lock()
	t.canceled = true
	t.mu.Unlock()
}

// getEarliestTimer returns the minimum getNextCallTime across timers,
// used by the Executor as an upper bound on how long wait_for_work may
// block. Returns (0, false) if timers is empty.
func getEarliestTimer(timers []*Timer) (Duration, bool) {
	if len(timers) == 0 {
		return Duration{}, false
	}
	earliest := timers[0].getNextCallTime()
	for _, t := range timers[1:] {
		d := t.getNextCallTime()
		if durationLess(d, earliest) {
			earliest = d
		}
	}
	return earliest, true
}

func durationLess(a, b Duration) bool {
	if a.Sec != b.Sec {
		return a.Sec < b.Sec
	}
	return a.NSec < b.NSec
}

func durationToGo(d Duration) time.Duration {
	return time.Duration(d.Sec)*time.Second + time.Duration(d.NSec)*time.Nanosecond
}
