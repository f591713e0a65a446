package utils

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(3)

	var counter int64
	for i := 0; i < 50; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Wait()

	if counter != 50 {
		t.Errorf("expected 50 completed jobs, got %d", counter)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	const limit = 2
	pool := NewWorkerPool(limit)

	var active, peak int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			n := atomic.AddInt64(&active, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			atomic.AddInt64(&active, -1)
		})
	}
	pool.Wait()

	if peak > limit {
		t.Errorf("observed %d concurrent jobs, limit is %d", peak, limit)
	}
}

func TestURLSet(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://example.com/a") {
		t.Error("first Add must return true")
	}
	if s.Add("https://example.com/a") {
		t.Error("second Add of the same URL must return false")
	}
	if !s.Contains("https://example.com/a") {
		t.Error("Contains must see the added URL")
	}
	if s.Contains("https://example.com/b") {
		t.Error("Contains must not see an unknown URL")
	}
	if s.Size() != 1 {
		t.Errorf("Size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrentAdds(t *testing.T) {
	s := NewURLSet()

	var wg sync.WaitGroup
	var added int64
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("same-url") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("exactly one concurrent Add must win, got %d", added)
	}
}
