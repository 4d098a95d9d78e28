package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"fpl-optimizer/internal/fpl"
	"fpl-optimizer/internal/models"
	"fpl-optimizer/internal/providers"
	"fpl-optimizer/pkg/database"
)

// SnapshotService keeps the local player pool in sync with the FPL API on a
// cron schedule and serves reads from cache ahead of the database.
type SnapshotService struct {
	db        *database.DB
	cache     *CacheService
	client    *providers.FPLClient
	hub       *Hub
	logger    *logrus.Logger
	cron      *cron.Cron
	schedule  string
	cacheTTL  time.Duration
	mu        sync.Mutex
	isRunning bool
}

func NewSnapshotService(
	db *database.DB,
	cache *CacheService,
	client *providers.FPLClient,
	hub *Hub,
	logger *logrus.Logger,
	schedule string,
	cacheTTL time.Duration,
) *SnapshotService {
	return &SnapshotService{
		db:       db,
		cache:    cache,
		client:   client,
		hub:      hub,
		logger:   logger,
		cron:     cron.New(),
		schedule: schedule,
		cacheTTL: cacheTTL,
	}
}

// Start begins the scheduled refresh. When runInitial is set the first fetch
// happens immediately in the background.
func (s *SnapshotService) Start(runInitial bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("snapshot service is already running")
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.Refresh(context.Background()); err != nil {
			s.logger.Errorf("Scheduled snapshot refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule snapshot refresh: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	if runInitial {
		go func() {
			if err := s.Refresh(context.Background()); err != nil {
				s.logger.Errorf("Initial snapshot refresh failed: %v", err)
			}
		}()
	}

	s.logger.Info("Snapshot service started")
	return nil
}

// Stop halts the scheduled refresh.
func (s *SnapshotService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Snapshot service stopped")
}

// Refresh pulls a fresh snapshot, persists it, invalidates derived caches,
// and notifies connected clients.
func (s *SnapshotService) Refresh(ctx context.Context) error {
	snap, report, err := s.client.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}

	if err := models.ReplaceSnapshot(s.db, snap, report); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	if err := s.cache.InvalidatePlanning(ctx); err != nil {
		s.logger.Warnf("Failed to invalidate planning caches: %v", err)
	}
	if err := s.cache.SetWithRetry(ctx, SnapshotCacheKey(), snap, s.cacheTTL, 3); err != nil {
		s.logger.Warnf("Failed to cache snapshot: %v", err)
	}

	if s.hub != nil {
		s.hub.Broadcast("snapshot_refreshed", map[string]interface{}{
			"players":  len(snap.Players),
			"fixtures": len(snap.Fixtures),
		})
	}
	return nil
}

// Current returns the latest snapshot, preferring cache over the database.
func (s *SnapshotService) Current(ctx context.Context) (fpl.Snapshot, error) {
	var snap fpl.Snapshot
	if err := s.cache.Get(ctx, SnapshotCacheKey(), &snap); err == nil && len(snap.Players) > 0 {
		return snap, nil
	}

	snap, err := models.LoadSnapshot(s.db)
	if err != nil {
		return snap, fmt.Errorf("load snapshot: %w", err)
	}
	if len(snap.Players) == 0 {
		return snap, fmt.Errorf("no snapshot available; refresh has not run")
	}

	if err := s.cache.Set(ctx, SnapshotCacheKey(), snap, s.cacheTTL); err != nil {
		s.logger.Warnf("Failed to cache snapshot: %v", err)
	}
	return snap, nil
}

// CurrentWeek proxies the upstream gameweek pointer.
func (s *SnapshotService) CurrentWeek(ctx context.Context) (int, error) {
	return s.client.CurrentWeek(ctx)
}

// LastSync reports when the pool was last refreshed.
func (s *SnapshotService) LastSync() (*models.SnapshotSync, error) {
	return models.LastSync(s.db)
}
