package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sasikola/mb-server/internal/storage"
	"go.uber.org/zap"
)

// ReferenceLister lists the file references a table still points to
type ReferenceLister interface {
	ListImageReferences(ctx context.Context) ([]string, error)
}

// FileStore is the storage the sweeper walks and deletes from
type FileStore interface {
	Deleter
	List() ([]storage.StoredFile, error)
}

// Sweeper periodically removes stored files no row references anymore.
// Files younger than the grace period are kept, they may belong to a write still in flight.
type Sweeper struct {
	store   FileStore
	listers []ReferenceLister
	grace   time.Duration
	logger  *zap.Logger
	cron    *cron.Cron
	now     func() time.Time
}

// NewSweeper creates a new sweeper
func NewSweeper(store FileStore, grace time.Duration, logger *zap.Logger, listers ...ReferenceLister) *Sweeper {
	return &Sweeper{
		store:   store,
		listers: listers,
		grace:   grace,
		logger:  logger,
		cron:    cron.New(),
		now:     time.Now,
	}
}

// Start schedules the sweep with a standard cron expression or descriptor such as "@daily"
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Orphan upload sweep scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop stops the schedule and waits for a running sweep
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	removed, err := s.Sweep(context.Background())
	if err != nil {
		s.logger.Error("orphan upload sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("orphan upload sweep finished", zap.Int("removed", removed))
}

// Sweep deletes unreferenced files older than the grace period and returns how many were removed
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	referenced := make(map[string]struct{})
	for _, lister := range s.listers {
		references, err := lister.ListImageReferences(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list references: %w", err)
		}
		for _, reference := range references {
			referenced[reference] = struct{}{}
		}
	}

	files, err := s.store.List()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.grace)
	removed := 0
	for _, file := range files {
		if _, ok := referenced[file.Reference]; ok {
			continue
		}
		if file.ModTime.After(cutoff) {
			continue
		}
		if err := s.store.Delete(file.Reference); err != nil {
			s.logger.Error("failed to delete orphan upload", zap.String("reference", file.Reference), zap.Error(err))
			continue
		}
		removed++
	}

	return removed, nil
}
