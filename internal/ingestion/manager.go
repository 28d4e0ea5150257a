// Package ingestion keeps the local shelter snapshot in step with the CRUD
// API.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/siaga-merapi/internal/config"
	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/observability"
	"github.com/mr1hm/siaga-merapi/internal/repository"
	"github.com/mr1hm/siaga-merapi/internal/worker"
)

// ShelterSource lists the authoritative shelters.
type ShelterSource interface {
	ListShelters(ctx context.Context) ([]models.Shelter, error)
}

type upsertJob struct {
	shelter models.Shelter
	results chan<- error
}

// SyncResult describes one completed sync run.
type SyncResult struct {
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Upserted   int       `json:"upserted"`
	Failed     int       `json:"failed"`
	Pruned     int64     `json:"pruned"`
	Err        string    `json:"error,omitempty"`
}

type Manager struct {
	cfg    *config.Config
	source ShelterSource
	repo   repository.ShelterRepository
	pool   *worker.WorkerPool[upsertJob]
	wg     sync.WaitGroup

	mu   sync.RWMutex
	last *SyncResult
}

func NewManager(cfg *config.Config, source ShelterSource, repo repository.ShelterRepository) *Manager {
	return &Manager{
		cfg:    cfg,
		source: source,
		repo:   repo,
	}
}

func (m *Manager) Start(ctx context.Context) {
	processor := func(ctx context.Context, job upsertJob) error {
		err := m.repo.UpsertShelter(ctx, &job.shelter)
		if err != nil {
			slog.Error("error upserting shelter", "id", job.shelter.ID, "error", err)
		}
		job.results <- err
		return err
	}

	m.pool = worker.NewWorkerPool("shelter-sync", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, processor)
	m.pool.Start(ctx)

	if m.cfg.Sync.Enabled {
		m.wg.Add(1)
		go m.runPoller(ctx, m.cfg.Sync.Interval)
	}
}

func (m *Manager) runPoller(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()
	slog.Info("starting shelter sync", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial sync
	m.SyncNow(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("shelter sync shutting down")
			return
		case <-ticker.C:
			m.SyncNow(ctx)
		}
	}
}

// SyncNow pulls the full listing, upserts every shelter through the worker
// pool and prunes shelters the listing no longer has. A failed fetch leaves
// the previous snapshot untouched; a partially applied listing skips the prune.
func (m *Manager) SyncNow(ctx context.Context) SyncResult {
	res := m.sync(ctx)

	m.mu.Lock()
	m.last = &res
	m.mu.Unlock()

	if res.Err != "" {
		observability.SyncRunsTotal.WithLabelValues("error").Inc()
	} else {
		observability.SyncRunsTotal.WithLabelValues("ok").Inc()
	}
	return res
}

func (m *Manager) sync(ctx context.Context) SyncResult {
	slog.Debug("syncing shelters")
	res := SyncResult{}

	shelters, err := m.source.ListShelters(ctx)
	if err != nil {
		slog.Error("shelter sync failed, keeping previous snapshot", "error", err)
		res.Err = err.Error()
		res.FinishedAt = time.Now().UTC()
		return res
	}
	res.Fetched = len(shelters)

	results := make(chan error, len(shelters))
	submitted := 0
	for _, s := range shelters {
		if err := m.pool.Submit(ctx, upsertJob{shelter: s, results: results}); err != nil {
			res.Err = fmt.Sprintf("error submitting shelter %d: %v", s.ID, err)
			break
		}
		submitted++
	}

	for i := 0; i < submitted; i++ {
		select {
		case err := <-results:
			if err != nil {
				res.Failed++
			} else {
				res.Upserted++
			}
		case <-ctx.Done():
			res.Err = ctx.Err().Error()
			res.FinishedAt = time.Now().UTC()
			return res
		}
	}

	switch {
	case res.Err != "" || res.Failed > 0:
		slog.Warn("shelter listing partially applied, skipping prune", "upserted", res.Upserted, "failed", res.Failed)
	case len(shelters) == 0:
		slog.Warn("shelter listing is empty, skipping prune")
	default:
		ids := make([]int64, len(shelters))
		for i, s := range shelters {
			ids[i] = s.ID
		}
		pruned, err := m.repo.DeleteMissing(ctx, ids)
		if err != nil {
			slog.Error("error pruning shelters", "error", err)
			res.Err = err.Error()
		}
		res.Pruned = pruned
	}

	if n, err := m.repo.CountShelters(ctx); err == nil {
		observability.ShelterSnapshotSize.Set(float64(n))
	}

	slog.Info("shelter sync complete", "fetched", res.Fetched, "upserted", res.Upserted, "failed", res.Failed, "pruned", res.Pruned)
	res.FinishedAt = time.Now().UTC()
	return res
}

// LastSync returns the most recent run, or nil before the first one.
func (m *Manager) LastSync() *SyncResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil
	}
	r := *m.last
	return &r
}

func (m *Manager) Stop() {
	m.wg.Wait()
	if m.pool != nil {
		m.pool.Stop()
	}
	slog.Info("ingestion manager stopped")
}
