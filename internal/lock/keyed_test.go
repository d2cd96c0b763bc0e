package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedSerializesSameKey(t *testing.T) {
	t.Parallel()

	k := NewKeyed[int64]()
	var active, maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), 1)
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				m := atomic.LoadInt32(&maxActive)
				if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxActive)
	}
	if k.size() != 0 {
		t.Fatalf("expected all entries to be dropped, got %d", k.size())
	}
}

func TestKeyedDifferentKeysDoNotBlock(t *testing.T) {
	t.Parallel()

	k := NewKeyed[int64]()
	unlockA, err := k.Lock(context.Background(), 1)
	if err != nil {
		t.Fatalf("Lock 1: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := k.Lock(ctx, 2)
	if err != nil {
		t.Fatalf("Lock 2 blocked on unrelated key: %v", err)
	}
	unlockB()
}

func TestKeyedLockHonoursContext(t *testing.T) {
	t.Parallel()

	k := NewKeyed[string]()
	unlock, err := k.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := k.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	unlock()
	unlock() // second call is a no-op
	if k.size() != 0 {
		t.Fatalf("expected entry dropped after unlock, got %d", k.size())
	}
}
