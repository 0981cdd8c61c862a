package treasury

import (
	"sync"
	"testing"
	"time"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	k := newKeyedMutex()

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.lock("alice")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.lock("alice")
	defer unlockA()

	// A different key must not block behind alice's lock.
	done := make(chan struct{})
	go func() {
		unlockB := k.lock("bob")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent key blocked")
	}
}

func TestKeyedMutexOpposingPairsDoNotDeadlock(t *testing.T) {
	k := newKeyedMutex()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := k.lock("alice", "bob")
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := k.lock("bob", "alice")
			unlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("opposing lock orders deadlocked")
	}
}

func TestKeyedMutexDuplicateKeys(t *testing.T) {
	k := newKeyedMutex()

	// Duplicate keys are collapsed; locking twice would self-deadlock.
	unlock := k.lock("platform", "alice", "platform")
	unlock()

	unlock = k.lock("alice")
	unlock()
}
