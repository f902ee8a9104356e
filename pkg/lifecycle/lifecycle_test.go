package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/speakeval/pkg/lifecycle"
)

func TestNew(t *testing.T) {
	lc := lifecycle.New()

	if lc.Context() == nil {
		t.Error("Context() returned nil")
	}
	if lc.Ready() {
		t.Error("Ready() = true, want false for new coordinator")
	}
}

func TestCoordinator_OnStartup(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	for i := 0; i < 3; i++ {
		lc.OnStartup(func() {
			count.Add(1)
		})
	}

	lc.WaitForStartup()

	if count.Load() != 3 {
		t.Errorf("count = %d, want 3", count.Load())
	}
	if !lc.Ready() {
		t.Error("Ready() = false after WaitForStartup")
	}
}

func TestCoordinator_Shutdown(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	var executed atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		executed.Store(true)
	})

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !executed.Load() {
		t.Error("shutdown hook was not executed")
	}
	if lc.Ready() {
		t.Error("Ready() = true after Shutdown")
	}

	select {
	case <-lc.Context().Done():
	default:
		t.Error("context not cancelled after Shutdown")
	}
}

func TestCoordinator_Shutdown_Timeout(t *testing.T) {
	lc := lifecycle.New()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		time.Sleep(500 * time.Millisecond)
	})

	if err := lc.Shutdown(50 * time.Millisecond); err == nil {
		t.Error("Shutdown() should return timeout error")
	}
}

func TestCoordinator_ReadinessChecker(t *testing.T) {
	var checker lifecycle.ReadinessChecker = lifecycle.New()
	if checker.Ready() {
		t.Error("Ready() = true, want false")
	}
}
