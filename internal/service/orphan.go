package service

import (
	"context"
	"fmt"
	"time"

	"github.com/YashLoriya02/storage-management/internal/model"
	"github.com/YashLoriya02/storage-management/internal/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reconciler retries the removal of objects whose metadata was deleted
type Reconciler struct {
	DB      *gorm.DB
	Objects storage.ObjectStore
	// Batch caps how many orphans one sweep handles
	Batch int
}

// Sweep tries to delete every recorded orphan once and returns how many were
// removed
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	batch := r.Batch
	if batch <= 0 {
		batch = 100
	}

	var orphans []model.OrphanedObject

	err := r.DB.WithContext(ctx).
		Order("last_attempt ASC").
		Limit(batch).
		Find(&orphans).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to query orphaned objects, %w", err)
	}

	removed := 0

	for _, o := range orphans {
		if o.BucketID != "" && o.BucketID != r.Objects.Bucket() {
			zap.L().Warn("Orphaned object belongs to another bucket", zap.String("bucket", o.BucketID), zap.String("key", o.ObjectKey))
		}

		if err := r.Objects.Delete(ctx, o.ObjectKey); err != nil {
			zap.L().Warn("Orphaned object still can't be removed", zap.String("key", o.ObjectKey), zap.Int("attempts", o.Attempts+1), zap.Error(err))

			err = r.DB.WithContext(ctx).
				Model(&o).
				Updates(map[string]any{
					"attempts":     gorm.Expr("attempts + ?", 1),
					"last_error":   err.Error(),
					"last_attempt": time.Now(),
				}).
				Error
			if err != nil {
				zap.L().Error("Failed to update orphaned object", zap.String("key", o.ObjectKey), zap.Error(err))
			}
			continue
		}

		if err := r.DB.WithContext(ctx).Delete(&o).Error; err != nil {
			zap.L().Error("Failed to forget orphaned object", zap.String("key", o.ObjectKey), zap.Error(err))
			continue
		}

		removed++
	}

	return removed, nil
}

// StartReconciler sweeps orphans on the cron schedule until the returned
// scheduler is stopped
func StartReconciler(schedule string, r *Reconciler) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		n, err := r.Sweep(context.Background())
		if err != nil {
			zap.L().Error("Orphan reconciliation failed", zap.Error(err))
			return
		}

		if n > 0 {
			zap.L().Info("Removed orphaned objects", zap.Int("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q, %w", schedule, err)
	}

	zap.L().Debug("Orphan reconciler attached", zap.String("schedule", schedule))

	c.Start()
	return c, nil
}
