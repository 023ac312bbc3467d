package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddKeywords unions keywords into the file's set. It needs the same
// capability as renaming and never removes existing keywords.
func (s *Files) AddKeywords(ctx context.Context, r access.Requester, ref FileRef, keywords []string) (*model.File, error) {
	f, err := s.Authorize(ctx, r, ref, access.ActionRename)
	if err != nil {
		return nil, err
	}

	if _, err := s.MergeKeywords(ctx, f.ID, keywords, ""); err != nil {
		return nil, err
	}

	return s.Load(ctx, FileRef{ID: f.ID})
}

// MergeKeywords unions keywords into the stored set under a row lock and, when
// state isn't empty, sets the ingestion state in the same transaction.
func (s *Files) MergeKeywords(ctx context.Context, fileID uint, keywords []string, state string) (model.StringSlice, error) {
	var merged model.StringSlice

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f model.File
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "keywords").
			Where("id = ?", fileID).
			First(&f).
			Error
		if err != nil {
			return err
		}

		var added bool
		merged, added = f.Keywords.Union(keywords...)

		updates := map[string]any{}
		if added {
			updates["keywords"] = merged
		}
		if state != "" {
			updates["state"] = state
		}

		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&model.File{}).Where("id = ?", fileID).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to merge keywords, %w", err)
	}

	return merged, nil
}

// State returns the file's ingestion state, empty if there's no such file
func (s *Files) State(ctx context.Context, fileID uint) (string, error) {
	var states []string

	err := s.DB.WithContext(ctx).
		Model(&model.File{}).
		Where("id = ?", fileID).
		Limit(1).
		Pluck("state", &states).
		Error
	if err != nil {
		return "", fmt.Errorf("failed to get file state, %w", err)
	}

	if len(states) == 0 {
		return "", nil
	}

	return states[0], nil
}

// SetState records ingestion progress
func (s *Files) SetState(ctx context.Context, fileID uint, state string) error {
	err := s.DB.WithContext(ctx).
		Model(&model.File{}).
		Where("id = ?", fileID).
		Update("state", state).
		Error
	if err != nil {
		return fmt.Errorf("failed to set file state, %w", err)
	}

	return nil
}
