package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/screenmode/internal/settings"
)

type fakeRefresher struct {
	mu      sync.Mutex
	calls   int
	results []settings.RefreshResult
	err     error
	panics  bool
	called  chan struct{}
}

func (f *fakeRefresher) Refresh(context.Context) (settings.RefreshResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.called != nil {
		select {
		case f.called <- struct{}{}:
		default:
		}
	}
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return settings.RefreshResult{}, f.err
	}
	if len(f.results) == 0 {
		return settings.RefreshResult{}, nil
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res, nil
}

func TestRefresher_OnChangeOnlyWhenChanged(t *testing.T) {
	fake := &fakeRefresher{results: []settings.RefreshResult{
		{Screens: 1, Added: []string{"randr/DP-1"}},
		{Screens: 1},
	}}
	var changes []settings.RefreshResult
	r := NewRefresher(RefresherConfig{OnChange: func(res settings.RefreshResult) {
		changes = append(changes, res)
	}}, fake)

	r.RefreshNow(context.Background())
	r.RefreshNow(context.Background())

	if fake.calls != 2 {
		t.Fatalf("expected 2 refreshes, got %d", fake.calls)
	}
	if len(changes) != 1 || changes[0].Added[0] != "randr/DP-1" {
		t.Fatalf("expected one change notification, got %+v", changes)
	}
}

func TestRefresher_ErrorsAndPanicsAreContained(t *testing.T) {
	fake := &fakeRefresher{err: errors.New("display gone")}
	r := NewRefresher(RefresherConfig{OnChange: func(settings.RefreshResult) {
		t.Fatalf("unexpected change notification")
	}}, fake)
	r.RefreshNow(context.Background())

	fake.panics = true
	r.RefreshNow(context.Background())
	if fake.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", fake.calls)
	}
}

func TestRefresher_RunTriggerAndStop(t *testing.T) {
	fake := &fakeRefresher{called: make(chan struct{}, 1)}
	r := NewRefresher(RefresherConfig{Interval: time.Hour}, fake)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	r.Trigger()
	select {
	case <-fake.called:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected triggered refresh")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Run to return after cancel")
	}
}

func TestNewRefresher_DefaultInterval(t *testing.T) {
	r := NewRefresher(RefresherConfig{}, &fakeRefresher{})
	if r.interval != 30*time.Second {
		t.Fatalf("expected default interval 30s, got %s", r.interval)
	}
}
