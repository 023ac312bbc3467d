package model

import "time"

// TypeUsage is the storage used by one semantic type
type TypeUsage struct {
	Size       int64      `json:"size"`
	LatestDate *time.Time `json:"latestDate"`
}

// Usage is computed on demand from the files visible to a user, it's never
// stored.
type Usage struct {
	Document TypeUsage `json:"document"`
	Image    TypeUsage `json:"image"`
	Video    TypeUsage `json:"video"`
	Audio    TypeUsage `json:"audio"`
	Other    TypeUsage `json:"other"`
	Used     int64     `json:"used"`
	All      int64     `json:"all"`
}

// For returns the bucket for a semantic type, unknown types count as other
func (u *Usage) For(t string) *TypeUsage {
	switch t {
	case TypeDocument:
		return &u.Document
	case TypeImage:
		return &u.Image
	case TypeVideo:
		return &u.Video
	case TypeAudio:
		return &u.Audio
	default:
		return &u.Other
	}
}

// Add counts one file of the given type towards the totals
func (u *Usage) Add(t string, size int64, updated time.Time) {
	b := u.For(t)
	b.Size += size
	u.Used += size

	if b.LatestDate == nil || updated.After(*b.LatestDate) {
		d := updated
		b.LatestDate = &d
	}
}
