package booking

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cinetix-cli/model"
)

func TestStartCountdown_UnknownWindowStartsNothing(t *testing.T) {
	b := model.Booking{Id: "b1", BookedAt: time.Now()}
	var ticks int32
	c, ok := StartCountdown(b, PaymentWindow{}, CountdownOptions{
		OnTick:   func(string, time.Duration) { atomic.AddInt32(&ticks, 1) },
		OnExpire: func(string) { atomic.AddInt32(&ticks, 1) },
	})
	if ok || c != nil {
		t.Fatal("expected no countdown for unknown window")
	}
	if atomic.LoadInt32(&ticks) != 0 {
		t.Fatal("expected no callbacks")
	}
}

func TestStartCountdown_PaidBookingStartsNothing(t *testing.T) {
	b := model.Booking{Id: "b1", IsPaid: true, BookedAt: time.Now()}
	if _, ok := StartCountdown(b, WindowFromSeconds(900), CountdownOptions{}); ok {
		t.Fatal("expected no countdown for paid booking")
	}
}

func TestCountdownTick_ExpiresExactlyOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var expiries []string
	var last time.Duration = -1
	c := newCountdown("b1", now.Add(2*time.Second), CountdownOptions{
		OnTick:   func(_ string, remaining time.Duration) { last = remaining },
		OnExpire: func(id string) { expiries = append(expiries, id) },
	})

	if c.tick(now) {
		t.Fatal("expected countdown to continue before deadline")
	}
	if last != 2*time.Second {
		t.Fatalf("expected 2s remaining, got %s", last)
	}
	if !c.tick(now.Add(2 * time.Second)) {
		t.Fatal("expected countdown to finish at deadline")
	}
	c.tick(now.Add(3 * time.Second))
	c.tick(now.Add(4 * time.Second))

	if len(expiries) != 1 || expiries[0] != "b1" {
		t.Fatalf("expected one expiry for b1, got %v", expiries)
	}
	if !c.Expired() {
		t.Fatal("expected countdown to report expired")
	}
}

func TestCountdown_PastDeadlineExpiresOnFirstTick(t *testing.T) {
	now := time.Now()
	b := model.Booking{Id: "late", BookedAt: now.Add(-1000 * time.Second)}

	var mu sync.Mutex
	var ticks []time.Duration
	var expiries int32
	c, ok := StartCountdown(b, WindowFromSeconds(900), CountdownOptions{
		Interval: time.Millisecond,
		Now:      func() time.Time { return now },
		OnTick: func(_ string, remaining time.Duration) {
			mu.Lock()
			ticks = append(ticks, remaining)
			mu.Unlock()
		},
		OnExpire: func(string) { atomic.AddInt32(&expiries, 1) },
	})
	if !ok {
		t.Fatal("expected countdown to start")
	}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) != 1 || ticks[0] != 0 {
		t.Fatalf("expected a single zero tick, got %v", ticks)
	}
	if got := atomic.LoadInt32(&expiries); got != 1 {
		t.Fatalf("expected 1 expiry, got %d", got)
	}
}

func TestCountdown_RealTimerReachesDeadline(t *testing.T) {
	b := model.Booking{Id: "soon", BookedAt: time.Now().Add(-time.Second + 30*time.Millisecond)}

	var expiries int32
	c, ok := StartCountdown(b, WindowFromSeconds(1), CountdownOptions{
		Interval: 5 * time.Millisecond,
		OnExpire: func(string) { atomic.AddInt32(&expiries, 1) },
	})
	if !ok {
		t.Fatal("expected countdown to start")
	}

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("countdown did not expire")
	}
	if got := atomic.LoadInt32(&expiries); got != 1 {
		t.Fatalf("expected 1 expiry, got %d", got)
	}
}

func TestCountdown_StopHaltsCallbacks(t *testing.T) {
	b := model.Booking{Id: "b1", BookedAt: time.Now()}

	var ticks int32
	var expiries int32
	c, ok := StartCountdown(b, WindowFromSeconds(900), CountdownOptions{
		Interval: time.Millisecond,
		OnTick:   func(string, time.Duration) { atomic.AddInt32(&ticks, 1) },
		OnExpire: func(string) { atomic.AddInt32(&expiries, 1) },
	})
	if !ok {
		t.Fatal("expected countdown to start")
	}
	time.Sleep(10 * time.Millisecond)

	c.Stop()
	c.Stop()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("countdown goroutine did not exit")
	}
	after := atomic.LoadInt32(&ticks)
	time.Sleep(10 * time.Millisecond)

	if got := atomic.LoadInt32(&ticks); got != after {
		t.Fatalf("expected no ticks after Stop, got %d more", got-after)
	}
	if atomic.LoadInt32(&expiries) != 0 {
		t.Fatal("expected no expiry")
	}
}

func TestCountdown_StopDoesNotWaitForBlockedCallback(t *testing.T) {
	b := model.Booking{Id: "late", BookedAt: time.Now().Add(-1000 * time.Second)}

	entered := make(chan struct{})
	release := make(chan struct{})
	c, ok := StartCountdown(b, WindowFromSeconds(900), CountdownOptions{
		OnExpire: func(string) {
			close(entered)
			<-release
		},
	})
	if !ok {
		t.Fatal("expected countdown to start")
	}
	<-entered

	stopped := make(chan struct{})
	go func() {
		c.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a running callback")
	}

	close(release)
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("countdown goroutine did not exit")
	}
}
