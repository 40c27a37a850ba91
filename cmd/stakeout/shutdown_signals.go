package main

import (
	"context"
	"os"
	"sync/atomic"

	"stakeout/internal/logging"
)

// watchInterrupts cancels the watch context on the first signal.
// Repeat signals are noted once and otherwise ignored; the loop is
// already stopping. The returned func stops the goroutine.
func watchInterrupts(logger *logging.Logger, cancel context.CancelFunc, signalCh <-chan os.Signal) func() {
	if signalCh == nil {
		return func() {}
	}

	done := make(chan struct{})
	var stopping atomic.Bool
	var loggedRepeat atomic.Bool

	go func() {
		for {
			select {
			case <-done:
				return
			case sig, ok := <-signalCh:
				if !ok {
					return
				}
				if stopping.CompareAndSwap(false, true) {
					if logger != nil {
						fields := map[string]string{}
						if sig != nil {
							fields["signal"] = sig.String()
						}
						logger.Info("interrupt received, stopping", fields)
					}
					if cancel != nil {
						cancel()
					}
					continue
				}
				if loggedRepeat.CompareAndSwap(false, true) && logger != nil {
					fields := map[string]string{}
					if sig != nil {
						fields["signal"] = sig.String()
					}
					logger.Info("already stopping, ignoring signal", fields)
				}
			}
		}
	}()

	return func() {
		close(done)
	}
}
