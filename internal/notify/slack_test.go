package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	slackgo "github.com/slack-go/slack"

	"github.com/vatsalai/vatsal/internal/bridge"
)

type fakePoster struct {
	mu       sync.Mutex
	channels []string
	fail     bool
}

func (f *fakePoster) PostMessageContext(_ context.Context, channelID string, _ ...slackgo.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", "", errors.New("slack down")
	}
	f.channels = append(f.channels, channelID)
	return channelID, "1700000000.000100", nil
}

func (f *fakePoster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.channels)
}

// collect pushes responses through a bridge and returns what subscribers saw.
func collect(t *testing.T, responses ...bridge.Response) []bridge.Delivery {
	t.Helper()
	b := bridge.New(bridge.WithMonitorInterval(10 * time.Millisecond))
	var (
		mu   sync.Mutex
		seen []bridge.Delivery
	)
	_ = b.RegisterSubscriber(func(d bridge.Delivery) error {
		mu.Lock()
		seen = append(seen, d)
		mu.Unlock()
		return nil
	})
	b.Start()
	defer b.Stop()
	for _, r := range responses {
		_ = b.PublishResponse(r)
	}
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == len(responses) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	return append([]bridge.Delivery(nil), seen...)
}

func runNotifier(t *testing.T, n *SlackNotifier) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = n.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitPosted(t *testing.T, p *fakePoster, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for p.count() < want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d posts, got %d", want, p.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotifier_PostsEveryResponse(t *testing.T) {
	p := &fakePoster{}
	n := NewNotifier(p, "C123", false)
	runNotifier(t, n)

	for _, d := range collect(t,
		bridge.Response{"status": bridge.StatusSuccess, "request_id": "1"},
		bridge.Response{"status": bridge.StatusError, "request_id": "2"},
	) {
		if err := n.Notify(d); err != nil {
			t.Fatal(err)
		}
	}
	waitPosted(t, p, 2)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channels[0] != "C123" {
		t.Errorf("posted to wrong channel %q", p.channels[0])
	}
}

func TestNotifier_OnlyFailures(t *testing.T) {
	p := &fakePoster{}
	n := NewNotifier(p, "C123", true)
	runNotifier(t, n)

	for _, d := range collect(t,
		bridge.Response{"status": bridge.StatusSuccess, "request_id": "ok"},
		bridge.Response{"status": bridge.StatusError, "request_id": "bad"},
	) {
		_ = n.Notify(d)
	}
	waitPosted(t, p, 1)
	time.Sleep(30 * time.Millisecond)
	if p.count() != 1 {
		t.Errorf("expected only the failure posted, got %d", p.count())
	}
}

func TestNotifier_FullQueueDrops(t *testing.T) {
	n := NewNotifier(&fakePoster{}, "C123", false)
	d := collect(t, bridge.Response{"status": bridge.StatusSuccess})[0]
	for i := 0; i < queueSize; i++ {
		if err := n.Notify(d); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := n.Notify(d); err == nil {
		t.Fatal("expected error on full queue")
	}
	if n.Dropped() != 1 {
		t.Errorf("expected 1 dropped, got %d", n.Dropped())
	}
}

func TestNotifier_PostFailureKeepsRunning(t *testing.T) {
	p := &fakePoster{fail: true}
	n := NewNotifier(p, "C123", false)
	runNotifier(t, n)

	d := collect(t, bridge.Response{"status": bridge.StatusSuccess})[0]
	_ = n.Notify(d)
	time.Sleep(30 * time.Millisecond)

	p.mu.Lock()
	p.fail = false
	p.mu.Unlock()
	_ = n.Notify(d)
	waitPosted(t, p, 1)
	if n.Posted() != 1 {
		t.Errorf("expected 1 posted, got %d", n.Posted())
	}
}

func TestFormatDelivery(t *testing.T) {
	d := collect(t, bridge.Response{
		"status":     bridge.StatusError,
		"request_id": "r-9",
		"command":    "run ls",
		"result":     strings.Repeat("x", maxResultText+10),
	})[0]

	got := formatDelivery(d)
	for _, want := range []string{":x:", "*error*", "`r-9`", "> run ls", "…"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatted text missing %q:\n%s", want, got)
		}
	}
}

func TestFormatDelivery_MultiByteResultStaysValid(t *testing.T) {
	d := collect(t, bridge.Response{
		"status":     bridge.StatusSuccess,
		"request_id": "r-10",
		"result":     "x" + strings.Repeat("é", maxResultText),
	})[0]

	got := formatDelivery(d)
	if !utf8.ValidString(got) {
		t.Fatalf("formatted text is not valid UTF-8")
	}
	if !strings.Contains(got, "…") {
		t.Errorf("expected truncation marker in %q", got)
	}
}
