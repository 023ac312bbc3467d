package model

import "time"

// OrphanedObject records a stored object whose metadata was deleted but the
// object itself couldn't be removed. The reconciler retries these.
type OrphanedObject struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	BucketID    string    `gorm:"not null"`
	ObjectKey   string    `gorm:"uniqueIndex;not null"`
	FileID      uint      `gorm:"index"`
	Attempts    int       `gorm:"default:0"`
	LastError   string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	LastAttempt time.Time
}
