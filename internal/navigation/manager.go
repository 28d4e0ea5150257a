package navigation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/observability"
	"github.com/mr1hm/siaga-merapi/internal/routing"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

var (
	ErrSessionNotFound = errors.New("navigation session not found")
	ErrNoShelter       = errors.New("no shelter with valid coordinates")
)

type Options struct {
	Debounce time.Duration
	Timeout  time.Duration
	// TTL closes sessions that have not been touched for this long.
	TTL time.Duration
}

type Manager struct {
	fetcher routing.Fetcher
	opts    Options
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewManager(fetcher routing.Fetcher, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	return &Manager{
		fetcher:  fetcher,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*session),
		stop:     make(chan struct{}),
	}
}

// Start runs the idle session janitor until ctx is done or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	interval := m.opts.TTL / 2
	if interval < time.Second {
		interval = time.Second
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				if n := m.expire(); n > 0 {
					slog.Info("expired idle navigation sessions", "count", n)
				}
			}
		}
	}()
}

// Create opens a session and requests a route when both ends are given.
func (m *Manager) Create(start, end *models.Coordinates) View {
	id := uuid.NewString()
	now := m.now()
	s := &session{id: id, createdAt: now, lastSeen: now}
	s.machine = routing.NewMachine(m.fetcher, routing.Options{
		Debounce: m.opts.Debounce,
		Timeout:  m.opts.Timeout,
		OnChange: func(snap routing.Snapshot) {
			slog.Debug("navigation state changed", "session", id, "state", snap.State.String(), "version", snap.Version)
		},
	})

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	observability.NavigationSessions.Inc()

	s.machine.Request(start, end)
	slog.Info("navigation session created", "session", id)
	return m.view(s)
}

func (m *Manager) Get(id string) (View, error) {
	s, err := m.touch(id)
	if err != nil {
		return View{}, err
	}
	return m.view(s), nil
}

// Update replaces the route endpoints. Either one may be nil, which returns
// the session to idle.
func (m *Manager) Update(id string, start, end *models.Coordinates) (View, error) {
	s, err := m.touch(id)
	if err != nil {
		return View{}, err
	}
	m.setDestination(s, nil)
	s.machine.Request(start, end)
	return m.view(s), nil
}

// RouteToNearest starts from user and routes to the closest shelter.
func (m *Manager) RouteToNearest(id string, user models.Coordinates, shelters []models.Shelter) (View, error) {
	s, err := m.touch(id)
	if err != nil {
		return View{}, err
	}
	if !user.Valid() {
		return View{}, routing.ErrInvalidCoordinates
	}

	nearest, ok := spatial.Nearest(&user, shelters)
	if !ok {
		return View{}, ErrNoShelter
	}
	end, _ := nearest.Shelter.Location()

	m.setDestination(s, &Destination{
		ShelterID:  nearest.Shelter.ID,
		Name:       nearest.Shelter.Name,
		DistanceKm: nearest.DistanceKm,
	})
	s.machine.Request(&user, &end)
	return m.view(s), nil
}

func (m *Manager) Cancel(id string) (View, error) {
	s, err := m.touch(id)
	if err != nil {
		return View{}, err
	}
	s.machine.Cancel()
	return m.view(s), nil
}

func (m *Manager) Retry(id string) (View, error) {
	s, err := m.touch(id)
	if err != nil {
		return View{}, err
	}
	s.machine.Retry()
	return m.view(s), nil
}

// Delete tears the session down, aborting any request in flight.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.machine.Close()
	observability.NavigationSessions.Dec()
	slog.Info("navigation session closed", "session", id)
	return nil
}

func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop ends the janitor and closes every session.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()

	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range all {
		s.machine.Close()
		observability.NavigationSessions.Dec()
	}
	slog.Info("navigation manager stopped", "closed_sessions", len(all))
}

func (m *Manager) touch(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = m.now()
	return s, nil
}

func (m *Manager) view(s *session) View {
	m.mu.Lock()
	dest := s.destination
	m.mu.Unlock()

	v := newView(s, s.machine.Snapshot())
	v.Destination = dest
	return v
}

func (m *Manager) setDestination(s *session, d *Destination) {
	m.mu.Lock()
	s.destination = d
	m.mu.Unlock()
}

func (m *Manager) expire() int {
	cutoff := m.now().Add(-m.opts.TTL)

	m.mu.Lock()
	var expired []*session
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.machine.Close()
		observability.NavigationSessions.Dec()
	}
	return len(expired)
}
