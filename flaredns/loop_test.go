package flaredns

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopRunsOnce(t *testing.T) {
	var cycles atomic.Int32
	run := func(ctx context.Context) error {
		cycles.Add(1)
		return nil
	}

	if err := Loop(context.Background(), run, 0); err != nil {
		t.Fatalf("Loop failed: %s", err)
	}
	if got := cycles.Load(); got != 1 {
		t.Fatalf("Expected exactly 1 cycle; got %d", got)
	}
}

func TestLoopRunOncePropagatesFailure(t *testing.T) {
	failure := errors.New("all requested families failed")
	run := func(ctx context.Context) error {
		return failure
	}

	if err := Loop(context.Background(), run, 0); !errors.Is(err, failure) {
		t.Fatalf("Expected the cycle error back; got %v", err)
	}
}

func TestLoopRepeatsUntilCanceled(t *testing.T) {
	var cycles atomic.Int32
	run := func(ctx context.Context) error {
		cycles.Add(1)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(35 * time.Millisecond)
		cancel()
	}()

	if err := Loop(ctx, run, 10*time.Millisecond); err != nil {
		t.Fatalf("Expected a clean shutdown; got %s", err)
	}

	if got := cycles.Load(); got < 2 {
		t.Fatalf("Expected at least 2 cycles before cancellation; got %d", got)
	}
}

func TestLoopKeepsCadenceOnFailure(t *testing.T) {
	// A failing cycle must neither stop the loop nor change its interval.
	var cycles atomic.Int32
	run := func(ctx context.Context) error {
		cycles.Add(1)
		return errors.New("transient")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(35 * time.Millisecond)
		cancel()
	}()

	if err := Loop(ctx, run, 10*time.Millisecond); err != nil {
		t.Fatalf("Expected a clean shutdown; got %s", err)
	}

	if got := cycles.Load(); got < 2 {
		t.Fatalf("Expected the loop to keep running through failures; got %d cycles", got)
	}
}
