package service

import (
	"context"
	"fmt"
	"time"

	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/model"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Delete removes a file's metadata and then its stored object. Only the owner
// may delete. If the object can't be removed after a few attempts it's
// recorded as orphaned and ErrObjectCleanup is returned, the metadata stays
// deleted.
func (s *Files) Delete(ctx context.Context, r access.Requester, ref FileRef) (*model.File, error) {
	f, err := s.Authorize(ctx, r, ref, access.ActionDelete)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", f.ID).Delete(&model.Grant{}).Error; err != nil {
			return err
		}

		return tx.Delete(&model.File{}, f.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete file metadata, %w", err)
	}

	if err := s.deleteObject(ctx, f.BucketFileID); err != nil {
		zap.L().Error("Failed to delete stored object, recording it as orphaned",
			zap.Uint("file_id", f.ID),
			zap.String("key", f.BucketFileID),
			zap.Error(err),
		)

		if err := s.recordOrphan(ctx, f, err); err != nil {
			zap.L().Error("Failed to record orphaned object", zap.String("key", f.BucketFileID), zap.Error(err))
		}

		return f, fmt.Errorf("%w, %w", ErrObjectCleanup, err)
	}

	return f, nil
}

func (s *Files) deleteObject(ctx context.Context, key string) error {
	b := retry.WithMaxRetries(s.RetryMax, retry.NewExponential(s.RetryBase))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.Objects.Delete(ctx, key); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (s *Files) recordOrphan(ctx context.Context, f *model.File, cause error) error {
	o := model.OrphanedObject{
		BucketID:    f.BucketID,
		ObjectKey:   f.BucketFileID,
		FileID:      f.ID,
		Attempts:    1,
		LastError:   cause.Error(),
		LastAttempt: time.Now(),
	}

	// A fresh context, the request may already be cancelled
	return s.DB.WithContext(context.WithoutCancel(ctx)).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "object_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_error", "last_attempt"}),
		}).
		Create(&o).
		Error
}
