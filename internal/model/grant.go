package model

import (
	"strings"
	"time"
)

// Grant gives one invited user access to one file. The access tier is kept
// as its wire name, the access package owns its meaning.
type Grant struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	FileID    uint      `gorm:"not null;uniqueIndex:idx_file_grant" json:"-"`
	Email     string    `gorm:"not null;uniqueIndex:idx_file_grant" json:"email"`
	Access    string    `gorm:"not null" json:"accessType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Grant) TableName() string { return "file_grants" }

func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
