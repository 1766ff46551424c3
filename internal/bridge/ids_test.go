package bridge

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestIDGenerator_Format(t *testing.T) {
	var g idGenerator
	now := time.UnixMilli(1700000000123)
	id := g.next(SourceWebGUI, now)
	if id != "web_gui_1700000000123" {
		t.Errorf("unexpected id %q", id)
	}
}

func TestIDGenerator_SameMillisecondStaysUnique(t *testing.T) {
	var g idGenerator
	now := time.UnixMilli(1700000000000)
	a := g.next(SourceWebGUI, now)
	b := g.next(SourceWebGUI, now)
	if a == b {
		t.Fatalf("expected distinct ids, both %q", a)
	}
	if b != "web_gui_1700000000001" {
		t.Errorf("expected bumped stamp, got %q", b)
	}
}

func TestIDGenerator_ConcurrentUnique(t *testing.T) {
	var g idGenerator
	const workers, per = 8, 200

	var (
		mu  sync.Mutex
		ids = make(map[string]bool)
		wg  sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				id := g.next(SourceCLI, time.Now())
				mu.Lock()
				ids[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(ids) != workers*per {
		t.Errorf("expected %d unique ids, got %d", workers*per, len(ids))
	}
	for id := range ids {
		if !strings.HasPrefix(id, "cli_") {
			t.Errorf("unexpected prefix in %q", id)
			break
		}
	}
}
