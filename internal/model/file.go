// Package model defines database models
package model

import "time"

// Semantic file types
const (
	TypeDocument = "document"
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeOther    = "other"
)

// FileTypes lists every semantic type in display order
var FileTypes = []string{TypeDocument, TypeImage, TypeVideo, TypeAudio, TypeOther}

// Ingestion states a file goes through after upload
const (
	StateUploading         = "uploading"
	StateStored            = "stored"
	StateExtracting        = "extracting"
	StateTagging           = "tagging"
	StateTagged            = "tagged"
	StateExtractionSkipped = "extraction_skipped"
)

type File struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"` // Also the insertion order
	Type         string      `gorm:"index;not null" json:"type"`
	Name         string      `gorm:"not null" json:"name"`
	URL          string      `json:"url"`
	Extension    string      `json:"extension"`
	MimeType     string      `json:"mimeType"`
	Size         int64       `gorm:"not null" json:"size"`
	OwnerID      string      `gorm:"index;not null" json:"ownerId"`
	AccountID    string      `json:"accountId"`
	BucketFileID string      `gorm:"uniqueIndex;not null" json:"bucketFileId"` // Object store key
	BucketID     string      `json:"bucketId"`
	Keywords     StringSlice `gorm:"type:text" json:"keywords"`
	State        string      `gorm:"default:stored" json:"state"` // Ingestion progress, see the State* constants
	CreatedAt    time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	Owner  *FileOwner `gorm:"foreignKey:OwnerID;references:ID" json:"owner,omitempty"`
	Grants []Grant    `gorm:"foreignKey:FileID" json:"users"`
}

// FileOwner is the slice of a user that's safe to show next to a shared file
type FileOwner struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}

func (FileOwner) TableName() string { return "users" }

// GrantFor returns the grant matching the email, if any. Emails are compared
// case-insensitively.
func (f *File) GrantFor(email string) (*Grant, bool) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, false
	}

	for i := range f.Grants {
		if f.Grants[i].Email == email {
			return &f.Grants[i], true
		}
	}

	return nil, false
}
