package model

import "time"

// Migration marks a data migration from db.runMigrations as applied
type Migration struct {
	ID        int       `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}
