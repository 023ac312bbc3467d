package model

import "time"

// User rows are written by the account service. This service only reads them
// to authenticate requests and to show owner names.
type User struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	FullName  string    `gorm:"not null" json:"fullName"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	AccountID string    `json:"accountId"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
