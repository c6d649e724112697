package locks

import (
	"sync"
	"testing"
	"time"
)

func TestManager_AcquireRelease(t *testing.T) {
	m := NewManager(5 * time.Minute)

	ok, holder, _ := m.Acquire("resp_1", "user_a")
	if !ok || holder != "user_a" {
		t.Fatalf("expected user_a to acquire, got ok=%v holder=%s", ok, holder)
	}

	// Another user is blocked while the lock is live.
	ok, holder, _ = m.Acquire("resp_1", "user_b")
	if ok {
		t.Error("expected user_b to be blocked")
	}
	if holder != "user_a" {
		t.Errorf("expected current holder user_a, got %s", holder)
	}

	// The holder can refresh its own lock.
	ok, _, _ = m.Acquire("resp_1", "user_a")
	if !ok {
		t.Error("expected holder to refresh its own lock")
	}

	// Only the holder can release.
	if m.Release("resp_1", "user_b") {
		t.Error("expected release by non-holder to fail")
	}
	if !m.Release("resp_1", "user_a") {
		t.Error("expected release by holder to succeed")
	}

	ok, _, _ = m.Acquire("resp_1", "user_b")
	if !ok {
		t.Error("expected user_b to acquire after release")
	}
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager(time.Minute)
	current := time.Now()
	m.now = func() time.Time { return current }

	ok, _, expiresAt := m.Acquire("resp_1", "user_a")
	if !ok {
		t.Fatal("expected acquire to succeed")
	}
	if got := expiresAt.Sub(current); got != time.Minute {
		t.Errorf("expected 1m TTL, got %v", got)
	}

	// Still held just before expiry.
	current = current.Add(59 * time.Second)
	if ok, _, _ := m.Acquire("resp_1", "user_b"); ok {
		t.Error("expected lock to still be held")
	}

	// Expired locks are claimable by anyone.
	current = current.Add(2 * time.Second)
	ok, holder, _ := m.Acquire("resp_1", "user_b")
	if !ok || holder != "user_b" {
		t.Errorf("expected user_b to claim expired lock, got ok=%v holder=%s", ok, holder)
	}
}

func TestManager_Holder(t *testing.T) {
	m := NewManager(time.Minute)
	current := time.Now()
	m.now = func() time.Time { return current }

	if _, held := m.Holder("resp_1"); held {
		t.Error("expected no holder for unlocked record")
	}

	m.Acquire("resp_1", "user_a")
	holder, held := m.Holder("resp_1")
	if !held || holder != "user_a" {
		t.Errorf("expected user_a, got held=%v holder=%s", held, holder)
	}

	// An expired lock reports no holder.
	current = current.Add(2 * time.Minute)
	if _, held := m.Holder("resp_1"); held {
		t.Error("expected expired lock to report no holder")
	}
}

func TestManager_Sweep(t *testing.T) {
	m := NewManager(time.Minute)
	current := time.Now()
	m.now = func() time.Time { return current }

	m.Acquire("resp_1", "user_a")
	m.Acquire("resp_2", "user_b")

	if dropped := m.Sweep(); dropped != 0 {
		t.Errorf("expected 0 dropped while live, got %d", dropped)
	}

	current = current.Add(2 * time.Minute)
	m.Acquire("resp_3", "user_c")

	if dropped := m.Sweep(); dropped != 2 {
		t.Errorf("expected 2 expired locks dropped, got %d", dropped)
	}
	if _, held := m.Holder("resp_3"); !held {
		t.Error("expected live lock to survive sweep")
	}
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager(time.Minute)

	const goroutines = 50
	var wg sync.WaitGroup
	wins := make(chan string, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			holderID := string(rune('a' + n%26))
			if ok, _, _ := m.Acquire("resp_1", holderID); ok {
				wins <- holderID
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	// Every winner must be the same holder (or a refresh by that holder).
	first := ""
	for w := range wins {
		if first == "" {
			first = w
			continue
		}
		if w != first {
			t.Fatalf("multiple distinct holders won: %s and %s", first, w)
		}
	}
	if first == "" {
		t.Fatal("expected at least one successful acquire")
	}
}
