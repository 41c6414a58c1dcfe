package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/networkrad/internal/constants"
	"github.com/robfig/cron/v3"
)

// CleanupResult represents the result of a cleanup operation
type CleanupResult struct {
	Step     string        `json:"step"`
	Success  bool          `json:"success"`
	Removed  int           `json:"removed"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// CleanupOperation represents a single cleanup step
type CleanupOperation struct {
	Name     string
	Executor func(ctx context.Context) (int, error)
}

// SessionPurger drops expired sessions from an in-process store
type SessionPurger interface {
	Purge() int
}

// PhotoIndex lists the photo paths accounts still reference
type PhotoIndex interface {
	ListProfilePhotos(ctx context.Context) ([]string, error)
}

// OrphanStore finds and removes unreferenced uploads
type OrphanStore interface {
	Orphans(referenced []string, minAge time.Duration) ([]string, error)
	Remove(relPath string) error
}

// CleanupManager runs periodic maintenance: expired session purge and
// orphaned upload sweep
type CleanupManager struct {
	sessions SessionPurger
	photos   PhotoIndex
	uploads  OrphanStore
	logger   *slog.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewCleanupManager creates a new cleanup manager. sessions may be nil when
// the session backend expires entries on its own.
func NewCleanupManager(sessions SessionPurger, photos PhotoIndex, uploads OrphanStore, logger *slog.Logger) *CleanupManager {
	return &CleanupManager{
		sessions: sessions,
		photos:   photos,
		uploads:  uploads,
		logger:   logger,
	}
}

func (cm *CleanupManager) operations() []CleanupOperation {
	var ops []CleanupOperation
	if cm.sessions != nil {
		ops = append(ops, CleanupOperation{
			Name: "Purge expired sessions",
			Executor: func(context.Context) (int, error) {
				return cm.sessions.Purge(), nil
			},
		})
	}
	if cm.photos != nil && cm.uploads != nil {
		ops = append(ops, CleanupOperation{
			Name:     "Sweep orphaned uploads",
			Executor: cm.sweepOrphanUploads,
		})
	}
	return ops
}

// sweepOrphanUploads removes stored photos no account references anymore
func (cm *CleanupManager) sweepOrphanUploads(ctx context.Context) (int, error) {
	referenced, err := cm.photos.ListProfilePhotos(ctx)
	if err != nil {
		return 0, fmt.Errorf("list profile photos: %w", err)
	}

	orphans, err := cm.uploads.Orphans(referenced, constants.OrphanUploadMinAge)
	if err != nil {
		return 0, err
	}

	removed := 0
	var lastErr error
	for _, path := range orphans {
		if err := cm.uploads.Remove(path); err != nil {
			cm.logger.WarnContext(ctx, "failed to remove orphaned upload", "path", path, "error", err)
			lastErr = err
			continue
		}
		removed++
	}
	return removed, lastErr
}

// RunOnce executes every cleanup step, continuing past failures
func (cm *CleanupManager) RunOnce(ctx context.Context) ([]CleanupResult, error) {
	startTime := time.Now()
	operations := cm.operations()
	results := make([]CleanupResult, 0, len(operations))

	var lastError error
	for _, operation := range operations {
		start := time.Now()
		removed, err := operation.Executor(ctx)

		result := CleanupResult{
			Step:     operation.Name,
			Success:  err == nil,
			Removed:  removed,
			Duration: time.Since(start),
		}
		if err != nil {
			result.Error = err.Error()
			lastError = err
			cm.logger.ErrorContext(ctx, "Cleanup step failed", "step", operation.Name, "error", err)
		}
		results = append(results, result)
	}

	successCount := 0
	removedCount := 0
	for _, result := range results {
		if result.Success {
			successCount++
		}
		removedCount += result.Removed
	}

	cm.logger.InfoContext(ctx, "Cleanup completed",
		"totalSteps", len(operations),
		"successSteps", successCount,
		"removed", removedCount,
		"totalDuration", time.Since(startTime),
	)

	if lastError != nil {
		return results, fmt.Errorf("cleanup completed with errors: %w", lastError)
	}
	return results, nil
}

// Start schedules RunOnce on a cron spec such as "@every 10m" or "*/5 * * * *"
func (cm *CleanupManager) Start(schedule string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.scheduler != nil {
		return fmt.Errorf("cleanup already started")
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.JanitorTaskTimeout)
		defer cancel()
		// Errors are already logged per step
		_, _ = cm.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	scheduler.Start()
	cm.scheduler = scheduler
	cm.logger.Info("cleanup scheduled", "schedule", schedule)
	return nil
}

// Stop halts the schedule and waits for a running cleanup to finish or ctx to end
func (cm *CleanupManager) Stop(ctx context.Context) {
	cm.mu.Lock()
	scheduler := cm.scheduler
	cm.scheduler = nil
	cm.mu.Unlock()

	if scheduler == nil {
		return
	}

	select {
	case <-scheduler.Stop().Done():
	case <-ctx.Done():
		cm.logger.Warn("cleanup did not stop before shutdown deadline")
	}
}
