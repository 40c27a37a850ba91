package main

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"stakeout/internal/logging"
)

func TestWatchInterruptsCancelsOnFirstSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 2)
	stop := watchInterrupts(nil, cancel, signalCh)
	defer stop()

	signalCh <- os.Interrupt
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected the context to be cancelled")
	}
}

func TestWatchInterruptsNotesRepeatSignalsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.NewLoggerWithOutput(io.Discard, logging.LevelDebug)
	signalCh := make(chan os.Signal, 4)
	stop := watchInterrupts(logger, cancel, signalCh)
	defer stop()

	signalCh <- os.Interrupt
	<-ctx.Done()
	signalCh <- os.Interrupt
	signalCh <- os.Interrupt

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if countRepeatEntries(logger) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if got := countRepeatEntries(logger); got != 1 {
		t.Fatalf("expected one repeat entry, got %d", got)
	}
}

func TestWatchInterruptsNilChannel(t *testing.T) {
	stop := watchInterrupts(nil, nil, nil)
	stop()
}

func countRepeatEntries(logger *logging.Logger) int {
	count := 0
	for _, entry := range logger.Buffer().List() {
		if strings.Contains(entry.Message, "already stopping") {
			count++
		}
	}
	return count
}
