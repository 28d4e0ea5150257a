package routing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mr1hm/siaga-merapi/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	pointA = models.Coordinates{Latitude: -7.6200, Longitude: 110.4500}
	pointB = models.Coordinates{Latitude: -7.7000, Longitude: 110.4200}
	pointC = models.Coordinates{Latitude: -7.7500, Longitude: 110.3900}
	user   = models.Coordinates{Latitude: -7.6000, Longitude: 110.4400}
)

// fakeFetcher records calls and delegates to fn.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []pair
	fn    func(ctx context.Context, start, end models.Coordinates) (*RouteResult, error)
}

func (f *fakeFetcher) Route(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pair{start, end})
	f.mu.Unlock()
	return f.fn(ctx, start, end)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func resultTo(end models.Coordinates) *RouteResult {
	return &RouteResult{
		Coordinates: []models.Coordinates{user, end},
		DistanceKm:  3.2,
	}
}

func instantFetcher() *fakeFetcher {
	return &fakeFetcher{fn: func(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
		return resultTo(end), nil
	}}
}

func recorder() (chan Snapshot, func(Snapshot)) {
	ch := make(chan Snapshot, 64)
	return ch, func(s Snapshot) { ch <- s }
}

func waitForState(t *testing.T, ch chan Snapshot, want State) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if s.State == want {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state %s", want)
		}
	}
}

func TestMachine_Succeeds(t *testing.T) {
	ch, onChange := recorder()
	m := NewMachine(instantFetcher(), Options{Debounce: time.Millisecond, OnChange: onChange})
	defer m.Close()

	m.Request(&user, &pointA)
	if got := m.Snapshot().State; got != Pending && got != Succeeded {
		t.Errorf("expected pending right after request, got %s", got)
	}

	s := waitForState(t, ch, Succeeded)
	if s.Result == nil || *s.End != pointA {
		t.Fatalf("expected result for pointA, got %+v", s)
	}
	if s.Message() != "" {
		t.Errorf("expected no message on success, got %q", s.Message())
	}
}

func TestMachine_DeduplicatesSamePair(t *testing.T) {
	f := instantFetcher()
	ch, onChange := recorder()
	m := NewMachine(f, Options{Debounce: 20 * time.Millisecond, OnChange: onChange})
	defer m.Close()

	m.Request(&user, &pointA)
	m.Request(&user, &pointA)
	waitForState(t, ch, Succeeded)

	// Same pair while the result is held.
	a := pointA
	m.Request(&user, &a)
	time.Sleep(50 * time.Millisecond)

	if f.callCount() != 1 {
		t.Errorf("expected exactly 1 outbound call, got %d", f.callCount())
	}
	if m.Snapshot().State != Succeeded {
		t.Errorf("expected succeeded, got %s", m.Snapshot().State)
	}
}

func TestMachine_DebounceCoalescesChanges(t *testing.T) {
	f := instantFetcher()
	ch, onChange := recorder()
	m := NewMachine(f, Options{Debounce: 50 * time.Millisecond, OnChange: onChange})
	defer m.Close()

	m.Request(&user, &pointA)
	m.Request(&user, &pointB)
	m.Request(&user, &pointC)

	s := waitForState(t, ch, Succeeded)
	if *s.End != pointC {
		t.Errorf("expected route to pointC, got %+v", s.End)
	}
	if f.callCount() != 1 {
		t.Errorf("expected 1 call after debounce, got %d", f.callCount())
	}
}

func TestMachine_LateResultForSupersededPairIsDiscarded(t *testing.T) {
	startedA := make(chan struct{})
	releaseA := make(chan struct{})
	resA := resultTo(pointA)
	resB := resultTo(pointB)

	f := &fakeFetcher{fn: func(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
		if end == pointA {
			close(startedA)
			// Ignores cancellation to simulate a response already on the wire.
			<-releaseA
			return resA, nil
		}
		return resB, nil
	}}

	ch, onChange := recorder()
	m := NewMachine(f, Options{OnChange: onChange})

	m.Request(&user, &pointA)
	<-startedA

	m.Request(&user, &pointB)
	s := waitForState(t, ch, Succeeded)
	if s.Result != resB {
		t.Fatalf("expected B's result, got %+v", s.Result)
	}

	close(releaseA)
	m.wg.Wait()

	final := m.Snapshot()
	if final.State != Succeeded || final.Result != resB || *final.End != pointB {
		t.Errorf("late result for A overwrote B: %+v", final)
	}

	m.Close()
	close(ch)
	for s := range ch {
		if s.Result == resA {
			t.Error("observed a snapshot carrying A's result")
		}
	}
}

func TestMachine_SupersessionEmitsCancelled(t *testing.T) {
	f := &fakeFetcher{fn: func(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
		return resultTo(end), nil
	}}
	ch, onChange := recorder()
	m := NewMachine(f, Options{Debounce: time.Hour, OnChange: onChange})
	defer m.Close()

	m.Request(&user, &pointA)
	m.Request(&user, &pointB)

	waitForState(t, ch, Cancelled)
	s := waitForState(t, ch, Pending)
	if *s.End != pointB {
		t.Errorf("expected pending request for pointB, got %+v", s.End)
	}
}

func TestMachine_InvalidCoordinatesFailWithoutCall(t *testing.T) {
	f := instantFetcher()
	m := NewMachine(f, Options{})
	defer m.Close()

	bad := models.Coordinates{Latitude: 95, Longitude: 110.4}
	m.Request(&bad, &pointA)

	s := m.Snapshot()
	if s.State != Failed {
		t.Fatalf("expected failed, got %s", s.State)
	}
	if !errors.Is(s.Err, ErrInvalidCoordinates) {
		t.Errorf("expected validation error, got %v", s.Err)
	}
	if s.Message() != "Gagal menghitung rute. Koordinat tidak valid." {
		t.Errorf("unexpected message %q", s.Message())
	}

	time.Sleep(20 * time.Millisecond)
	if f.callCount() != 0 {
		t.Errorf("expected no outbound call, got %d", f.callCount())
	}
}

func TestMachine_FetchErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    error
		message string
	}{
		{"no route", ErrNoRoute, ErrNoRoute, "Gagal menghitung rute. Tidak dapat menemukan rute ke tujuan."},
		{"rate limited", ErrRateLimited, ErrRateLimited, "Gagal menghitung rute. Terlalu banyak permintaan. Tunggu sebentar."},
		{"transport", errors.New("connection reset"), ErrConnectivity, "Gagal menghitung rute. Periksa koneksi internet."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{fn: func(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
				return nil, tt.err
			}}
			ch, onChange := recorder()
			m := NewMachine(f, Options{OnChange: onChange})
			defer m.Close()

			m.Request(&user, &pointA)
			s := waitForState(t, ch, Failed)
			if !errors.Is(s.Err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, s.Err)
			}
			if s.Message() != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, s.Message())
			}
		})
	}
}

func TestMachine_TimeoutFailsAsConnectivity(t *testing.T) {
	f := &fakeFetcher{fn: func(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	ch, onChange := recorder()
	m := NewMachine(f, Options{Timeout: 20 * time.Millisecond, OnChange: onChange})
	defer m.Close()

	m.Request(&user, &pointA)
	s := waitForState(t, ch, Failed)
	if !errors.Is(s.Err, ErrConnectivity) {
		t.Errorf("expected connectivity error, got %v", s.Err)
	}
}

func TestMachine_RetryAfterFailure(t *testing.T) {
	var fail sync.Once
	f := &fakeFetcher{fn: func(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
		var err error
		fail.Do(func() { err = ErrRateLimited })
		if err != nil {
			return nil, err
		}
		return resultTo(end), nil
	}}
	ch, onChange := recorder()
	m := NewMachine(f, Options{OnChange: onChange})
	defer m.Close()

	m.Request(&user, &pointA)
	waitForState(t, ch, Failed)

	m.Retry()
	waitForState(t, ch, Succeeded)
	if f.callCount() != 2 {
		t.Errorf("expected 2 calls, got %d", f.callCount())
	}
}

func TestMachine_CancelAndReset(t *testing.T) {
	ch, onChange := recorder()
	m := NewMachine(instantFetcher(), Options{Debounce: time.Hour, OnChange: onChange})
	defer m.Close()

	m.Request(&user, &pointA)
	m.Cancel()
	s := waitForState(t, ch, Cancelled)
	if s.Message() != "" {
		t.Errorf("cancellation must not carry a message, got %q", s.Message())
	}

	m.Request(&user, &pointA)
	waitForState(t, ch, Pending)

	m.Request(&user, nil)
	s = waitForState(t, ch, Idle)
	if s.Result != nil || s.End != nil {
		t.Errorf("expected cleared idle snapshot, got %+v", s)
	}
}

func TestMachine_CloseAbortsInFlight(t *testing.T) {
	started := make(chan struct{})
	aborted := make(chan struct{})
	f := &fakeFetcher{fn: func(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
		close(started)
		<-ctx.Done()
		close(aborted)
		return nil, ctx.Err()
	}}

	var mu sync.Mutex
	var afterClose bool
	var lateCalls int
	m := NewMachine(f, Options{OnChange: func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if afterClose {
			lateCalls++
		}
	}})

	m.Request(&user, &pointA)
	<-started
	m.Close()

	mu.Lock()
	afterClose = true
	mu.Unlock()

	select {
	case <-aborted:
	default:
		t.Fatal("expected in-flight fetch to be aborted by Close")
	}

	m.Request(&user, &pointB)
	m.Cancel()
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if lateCalls != 0 {
		t.Errorf("expected no callbacks after Close, got %d", lateCalls)
	}
	if m.Snapshot().State != Idle {
		t.Errorf("expected idle after Close, got %s", m.Snapshot().State)
	}
}

func TestMachine_OnChangeMayCallBack(t *testing.T) {
	var m *Machine
	ch := make(chan Snapshot, 16)
	m = NewMachine(instantFetcher(), Options{OnChange: func(s Snapshot) {
		ch <- s
		// Dismissing a failure resets the machine from inside the callback.
		if s.State == Failed {
			m.Request(nil, nil)
		}
	}})
	defer m.Close()

	bad := models.Coordinates{Latitude: 95, Longitude: 110.4}
	done := make(chan struct{})
	go func() {
		m.Request(&user, &bad)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Request blocked while OnChange called back into the machine")
	}

	waitForState(t, ch, Failed)
	s := waitForState(t, ch, Idle)
	if s.End != nil {
		t.Errorf("expected endpoints cleared, got %+v", s)
	}
	if got := m.Snapshot().State; got != Idle {
		t.Errorf("expected idle, got %s", got)
	}
}

func TestMachine_OnChangeCancelsPending(t *testing.T) {
	f := &fakeFetcher{fn: func(ctx context.Context, start, end models.Coordinates) (*RouteResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	var m *Machine
	ch := make(chan Snapshot, 16)
	m = NewMachine(f, Options{OnChange: func(s Snapshot) {
		ch <- s
		if s.State == Pending {
			m.Cancel()
		}
	}})
	defer m.Close()

	m.Request(&user, &pointA)

	waitForState(t, ch, Pending)
	waitForState(t, ch, Cancelled)
	if got := m.Snapshot().State; got != Cancelled {
		t.Errorf("expected cancelled, got %s", got)
	}
}
