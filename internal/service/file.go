package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/model"
	"github.com/YashLoriya02/storage-management/internal/storage"
	"github.com/YashLoriya02/storage-management/pkg/validators"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound     = errors.New("file not found")
	ErrUnauthorized = errors.New("action not permitted")
	ErrInvalidGrant = errors.New("invalid grant")
	ErrInvalidFile  = errors.New("invalid file")
	ErrDuplicate    = errors.New("file already registered")
	// ErrObjectCleanup means the metadata is gone but the stored object is
	// still there and has been recorded for reconciliation
	ErrObjectCleanup = errors.New("stored object could not be removed")
)

// FileRef points at a file by ID or by its object key
type FileRef struct {
	ID           uint
	BucketFileID string
}

func (r FileRef) String() string {
	if r.ID != 0 {
		return fmt.Sprintf("id=%d", r.ID)
	}
	return "bucketFileId=" + r.BucketFileID
}

// GrantInput is a grant as submitted by a client
type GrantInput struct {
	Email  string `json:"email"`
	Access string `json:"accessType"`
}

// CreateInput is the metadata registered for an already stored object
type CreateInput struct {
	Type         string
	Name         string
	URL          string
	Extension    string
	MimeType     string
	Size         int64
	OwnerID      string
	AccountID    string
	BucketFileID string
	BucketID     string
	Grants       []GrantInput
	State        string
}

// Files owns every mutation of file metadata. Each one is checked against the
// access policy before it touches the database.
type Files struct {
	DB      *gorm.DB
	Objects storage.ObjectStore

	// Object deletion retry, see Delete
	RetryBase time.Duration
	RetryMax  uint64
}

func NewFiles(db *gorm.DB, objects storage.ObjectStore) *Files {
	return &Files{
		DB:        db,
		Objects:   objects,
		RetryBase: 200 * time.Millisecond,
		RetryMax:  3,
	}
}

// Load returns the file with its grants and owner name
func (s *Files) Load(ctx context.Context, ref FileRef) (*model.File, error) {
	q := s.DB.WithContext(ctx).
		Preload("Owner", func(db *gorm.DB) *gorm.DB { return db.Select("id", "full_name") }).
		Preload("Grants")

	switch {
	case ref.ID != 0:
		q = q.Where("id = ?", ref.ID)
	case ref.BucketFileID != "":
		q = q.Where("bucket_file_id = ?", ref.BucketFileID)
	default:
		return nil, ErrNotFound
	}

	var f model.File
	if err := q.First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to load file, %w", err)
	}

	return &f, nil
}

// Authorize loads the file and checks the action. A file the requester can't
// even see is reported as not found.
func (s *Files) Authorize(ctx context.Context, r access.Requester, ref FileRef, a access.Action) (*model.File, error) {
	f, err := s.Load(ctx, ref)
	if err != nil {
		return nil, err
	}

	if !access.CanPerform(r, f, access.ActionView) {
		return nil, ErrNotFound
	}

	if !access.CanPerform(r, f, a) {
		return nil, ErrUnauthorized
	}

	return f, nil
}

// Create registers metadata for an object that's already stored. Only the
// requester can be the owner.
func (s *Files) Create(ctx context.Context, r access.Requester, in CreateInput) (*model.File, error) {
	if in.OwnerID == "" || in.OwnerID != r.UserID {
		return nil, ErrUnauthorized
	}

	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	grants, err := normalizeGrants(r.Email, in.Grants)
	if err != nil {
		return nil, err
	}

	state := in.State
	if state == "" {
		state = model.StateStored
	}

	f := &model.File{
		Type:         in.Type,
		Name:         in.Name,
		URL:          in.URL,
		Extension:    in.Extension,
		MimeType:     in.MimeType,
		Size:         in.Size,
		OwnerID:      in.OwnerID,
		AccountID:    in.AccountID,
		BucketFileID: in.BucketFileID,
		BucketID:     in.BucketID,
		Keywords:     model.StringSlice{},
		State:        state,
		Grants:       grants,
	}

	if err := s.DB.WithContext(ctx).Create(f).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}

		return nil, fmt.Errorf("failed to create file, %w", err)
	}

	return s.Load(ctx, FileRef{ID: f.ID})
}

func validateCreate(in *CreateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(in.Extension), "."))

	switch {
	case in.Name == "":
		return fmt.Errorf("%w, name is required", ErrInvalidFile)
	case in.BucketFileID == "":
		return fmt.Errorf("%w, bucketFileId is required", ErrInvalidFile)
	case in.Size < 0:
		return fmt.Errorf("%w, size can't be negative", ErrInvalidFile)
	case !slices.Contains(model.FileTypes, in.Type):
		return fmt.Errorf("%w, unknown type %q", ErrInvalidFile, in.Type)
	}

	if in.AccountID != "" {
		if _, err := uuid.Parse(in.AccountID); err != nil {
			return fmt.Errorf("%w, accountId must be a uuid", ErrInvalidFile)
		}
	}

	return nil
}

// Rename changes the display name. Requires the rename capability.
func (s *Files) Rename(ctx context.Context, r access.Requester, ref FileRef, name string) (*model.File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w, name is required", ErrInvalidFile)
	}

	f, err := s.Authorize(ctx, r, ref, access.ActionRename)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).
		Model(&model.File{}).
		Where("id = ?", f.ID).
		Update("name", name).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to rename file, %w", err)
	}

	return s.Load(ctx, FileRef{ID: f.ID})
}

// Share changes the collaborators of a file. With replace the submitted
// grants become the whole grant set, otherwise they're added and an email
// that already has a grant gets the submitted tier.
func (s *Files) Share(ctx context.Context, r access.Requester, ref FileRef, in []GrantInput, replace bool) (*model.File, error) {
	f, err := s.Authorize(ctx, r, ref, access.ActionShare)
	if err != nil {
		return nil, err
	}

	ownerEmail, err := s.ownerEmail(ctx, f, r)
	if err != nil {
		return nil, err
	}

	grants, err := normalizeGrants(ownerEmail, in)
	if err != nil {
		return nil, err
	}

	if !replace && len(grants) == 0 {
		return nil, fmt.Errorf("%w, no users provided", ErrInvalidGrant)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replace {
			if err := tx.Where("file_id = ?", f.ID).Delete(&model.Grant{}).Error; err != nil {
				return err
			}
		}

		if len(grants) == 0 {
			return nil
		}

		for i := range grants {
			grants[i].FileID = f.ID
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_id"}, {Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"access", "updated_at"}),
		}).Create(&grants).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update grants, %w", err)
	}

	zap.L().Debug("File shared",
		zap.Uint("file_id", f.ID),
		zap.Int("grants", len(grants)),
		zap.Bool("replace", replace),
	)

	return s.Load(ctx, FileRef{ID: f.ID})
}

// ownerEmail finds the owner's address so it can be kept out of the grants
func (s *Files) ownerEmail(ctx context.Context, f *model.File, r access.Requester) (string, error) {
	if r.UserID == f.OwnerID {
		return r.Email, nil
	}

	var email string
	err := s.DB.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", f.OwnerID).
		Select("email").
		Scan(&email).
		Error
	if err != nil {
		return "", fmt.Errorf("failed to look up file owner, %w", err)
	}

	return email, nil
}

// normalizeGrants validates submitted grants, lowercases emails, stores tiers
// by their canonical name and keeps the last tier given for an email.
func normalizeGrants(ownerEmail string, in []GrantInput) ([]model.Grant, error) {
	ownerEmail = model.NormalizeEmail(ownerEmail)
	out := make([]model.Grant, 0, len(in))
	index := map[string]int{}

	for _, g := range in {
		email := model.NormalizeEmail(g.Email)
		if err := validators.EmailValidator(email); err != nil {
			return nil, fmt.Errorf("%w, %q: %w", ErrInvalidGrant, g.Email, err)
		}

		if email == ownerEmail {
			return nil, fmt.Errorf("%w, the owner can't be a collaborator", ErrInvalidGrant)
		}

		tier, err := access.ParseTier(g.Access)
		if err != nil {
			return nil, fmt.Errorf("%w, %q: %w", ErrInvalidGrant, g.Access, err)
		}

		if i, ok := index[email]; ok {
			out[i].Access = tier.String()
			continue
		}

		index[email] = len(out)
		out = append(out, model.Grant{Email: email, Access: tier.String()})
	}

	return out, nil
}
