package status

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

// memPersistence implements Persistence for testing
type memPersistence struct {
	mu      sync.Mutex
	stored  *models.VolcanoStatus
	loadErr error
	saveErr error
	saves   int
}

func (p *memPersistence) LoadStatus(ctx context.Context) (*models.VolcanoStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	if p.stored == nil {
		return nil, nil
	}
	st := *p.stored
	return &st, nil
}

func (p *memPersistence) SaveStatus(ctx context.Context, st models.VolcanoStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.stored = &st
	p.saves++
	return nil
}

func TestNewStore_DefaultsToNormal(t *testing.T) {
	p := &memPersistence{}
	s, err := NewStore(context.Background(), p)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	if s.Get().Level != models.StatusNormal {
		t.Errorf("expected normal, got %s", s.Get().Level)
	}
	if p.stored == nil || p.stored.Level != models.StatusNormal {
		t.Error("expected initial status to be persisted")
	}
}

func TestNewStore_RestoresPersisted(t *testing.T) {
	p := &memPersistence{stored: &models.VolcanoStatus{Level: models.StatusSiaga, UpdatedAt: time.Now()}}
	s, err := NewStore(context.Background(), p)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	if s.Get().Level != models.StatusSiaga {
		t.Errorf("expected siaga, got %s", s.Get().Level)
	}
	if p.saves != 0 {
		t.Errorf("expected no write for a valid status, got %d", p.saves)
	}
}

func TestNewStore_CorruptResetsToNormal(t *testing.T) {
	tests := []struct {
		name string
		p    *memPersistence
	}{
		{"unknown level", &memPersistence{stored: &models.VolcanoStatus{Level: "erupsi"}}},
		{"load error", &memPersistence{loadErr: errors.New("bad json")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStore(context.Background(), tt.p)
			if err != nil {
				t.Fatalf("NewStore failed: %v", err)
			}
			defer s.Close()
			if s.Get().Level != models.StatusNormal {
				t.Errorf("expected reset to normal, got %s", s.Get().Level)
			}
		})
	}
}

func TestStore_Set(t *testing.T) {
	p := &memPersistence{}
	s, err := NewStore(context.Background(), p)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	st, err := s.Set(context.Background(), models.StatusWaspada)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if st.Level != models.StatusWaspada || st.UpdatedAt.IsZero() {
		t.Errorf("unexpected status %+v", st)
	}
	if p.stored.Level != models.StatusWaspada {
		t.Errorf("expected waspada persisted, got %s", p.stored.Level)
	}

	if _, err := s.Set(context.Background(), models.StatusWaspada); !errors.Is(err, ErrUnchanged) {
		t.Errorf("expected ErrUnchanged, got %v", err)
	}
	if _, err := s.Set(context.Background(), "erupsi"); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestStore_SetPersistFailureKeepsCurrent(t *testing.T) {
	p := &memPersistence{}
	s, _ := NewStore(context.Background(), p)
	defer s.Close()

	p.saveErr = errors.New("disk full")
	if _, err := s.Set(context.Background(), models.StatusAwas); err == nil {
		t.Fatal("expected error when persistence fails")
	}
	if s.Get().Level != models.StatusNormal {
		t.Errorf("expected status unchanged, got %s", s.Get().Level)
	}
}

func TestStore_SubscribeReceivesChanges(t *testing.T) {
	s, _ := NewStore(context.Background(), &memPersistence{})

	id, ch := s.Subscribe()
	if _, err := s.Set(context.Background(), models.StatusAwas); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	select {
	case st := <-ch:
		if st.Level != models.StatusAwas {
			t.Errorf("expected awas, got %s", st.Level)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for status change")
	}

	s.Unsubscribe(id)
	s.Close()

	_, late := s.Subscribe()
	if _, ok := <-late; ok {
		t.Error("expected closed channel after Close")
	}
}

func TestInfo(t *testing.T) {
	info := Info(models.StatusSiaga)
	if info.Label != "Siaga" || info.Index != 2 || len(info.Recommendations) == 0 {
		t.Errorf("unexpected info %+v", info)
	}
	if Info("unknown").Level != models.StatusNormal {
		t.Error("expected unknown level to fall back to normal")
	}
	if len(AllInfo()) != 4 {
		t.Errorf("expected 4 levels, got %d", len(AllInfo()))
	}
}

func TestDecodeStatus(t *testing.T) {
	st, err := decodeStatus([]byte(`{"status":"awas","timestamp":"2026-03-01T08:30:00Z"}`))
	if err != nil {
		t.Fatalf("decodeStatus failed: %v", err)
	}
	if st.Level != models.StatusAwas || st.UpdatedAt.Hour() != 8 {
		t.Errorf("unexpected status %+v", st)
	}
	if _, err := decodeStatus([]byte(`{not json`)); err == nil {
		t.Error("expected error for corrupt value")
	}
}
