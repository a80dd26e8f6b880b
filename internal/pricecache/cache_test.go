package pricecache

import (
	"sync"
	"testing"
)

func TestGetUnknownSymbol(t *testing.T) {
	c := New()
	if _, ok := c.Get("BTCUSDT"); ok {
		t.Fatalf("expected miss for never-observed symbol")
	}
}

func TestUpdateOverwrites(t *testing.T) {
	c := New()
	c.Update("BTCUSDT", 100.5)
	c.Update("BTCUSDT", 101.25)

	q, ok := c.Get("BTCUSDT")
	if !ok {
		t.Fatalf("expected hit after update")
	}
	if q.Price != 101.25 {
		t.Fatalf("expected last write to win, got %v", q.Price)
	}
	if q.ObservedAt.IsZero() {
		t.Fatalf("expected observation time to be set")
	}
}

func TestConcurrentReadersSingleWriter(t *testing.T) {
	c := New()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			c.Update("ETHUSDT", float64(i))
		}
	}()

	var wg sync.WaitGroup
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Get("ETHUSDT")
			}
		}()
	}
	wg.Wait()
	<-done

	q, ok := c.Get("ETHUSDT")
	if !ok || q.Price != 999 {
		t.Fatalf("expected final price 999, got %v ok=%v", q.Price, ok)
	}
}
