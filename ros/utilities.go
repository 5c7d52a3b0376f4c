package ros

import (
	"os"
	osSignal "os/signal"
	"sync"
	"time"
)

// Process-wide singletons mirroring rclcpp::utilities: a shutdown flag
// read by OK, a SIGINT guard condition every Executor's wait-set
// includes, and a channel used by SleepFor so cooperative sleeps
// return early on shutdown. Treat these as lazily initialized and
// torn down only at process exit.
var (
	globalMu       sync.Mutex
	globalInited   bool
	globalShutdown bool
	globalSigint   GuardCondition
	globalDoneCh   chan struct{}
	priorHandler   chan os.Signal
)

// Init resets the shutdown flag, installs the SIGINT guard condition
// against rmw, and installs a SIGINT handler chained so prior signal
// handling (test harnesses, language runtimes) keeps working.
func Init(rmw RMW) {
	globalMu.Lock()
	globalInited = true
	globalShutdown = false
	globalSigint = rmw.CreateGuardCondition()
	globalDoneCh = make(chan struct{})
	globalMu.Unlock()

	priorHandler = make(chan os.Signal, 1)
	osSignal.Notify(priorHandler, os.Interrupt)
	go watchSigint()
}

func watchSigint() {
	if _, ok := <-priorHandler; ok {
		Shutdown()
	}
}

// Shutdown sets the process-wide shutdown flag, triggers the SIGINT
// guard condition (waking every blocked wait), and closes the channel
// SleepFor listens on so every cooperative sleep returns early.
func Shutdown() {
	globalMu.Lock()
	if globalShutdown {
		globalMu.Unlock()
		return
	}
	globalShutdown = true
	guard := globalSigint
	done := globalDoneCh
	globalMu.Unlock()

	if guard != nil {
		if err := guard.Trigger(); err != nil {
			DefaultLogger().Warnf("rclgo: failed to trigger sigint guard condition: %v", err)
		}
	}
	if done != nil {
		close(done)
	}
}

// OK reports whether the process-wide shutdown flag is still clear.
func OK() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalInited && !globalShutdown
}

func sigintGuardCondition() GuardCondition {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalSigint
}

// SleepFor pauses the calling goroutine for d, returning true if the
// full duration elapsed or false if Shutdown cut it short.
func SleepFor(d time.Duration) bool {
	globalMu.Lock()
	done := globalDoneCh
	globalMu.Unlock()
	if done == nil {
		time.Sleep(d)
		return true
	}
	select {
	case <-time.After(d):
		return true
	case <-done:
		return false
	}
}

// SleepForErr is SleepFor's error-returning form, surfacing the
// typed Interrupted condition to callers that prefer Go's error
// idiom over a bare bool.
func SleepForErr(d time.Duration) error {
	if SleepFor(d) {
		return nil
	}
	return ErrInterrupted
}
