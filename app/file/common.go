// Package file contains the /api/files handlers
package file

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/model"
	"github.com/YashLoriya02/storage-management/internal/service"
	"github.com/YashLoriya02/storage-management/pkg/middleware"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/zap"
)

// ref is how request bodies point at a file. fileId wins over bucketFileId.
type ref struct {
	FileID       uint   `json:"fileId" form:"fileId"`
	BucketFileID string `json:"bucketFileId" form:"bucketFileId"`
}

func (r ref) fileRef() service.FileRef {
	return service.FileRef{ID: r.FileID, BucketFileID: r.BucketFileID}
}

func (r ref) empty() bool {
	return r.FileID == 0 && r.BucketFileID == ""
}

func requester(c *gin.Context) access.Requester {
	return access.Requester{
		UserID: c.GetString("userID"),
		Email:  c.GetString("email"),
	}
}

// serviceError writes the response for an error returned by service.Files
func serviceError(c *gin.Context, err error, msg string) {
	requestID := c.GetString("requestID")

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "File not found. It either doesn't exist or you can't access it",
			"requestID": requestID,
		})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "You don't have permission to do that",
			"requestID": requestID,
		})
	case errors.Is(err, service.ErrInvalidGrant), errors.Is(err, service.ErrInvalidFile):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
	case errors.Is(err, service.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "File already registered",
			"requestID": requestID,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error(msg, zap.String("requestID", requestID), zap.Error(err))
	}
}

// formFile reads the "file" part, writing the error response when it's
// missing or the body was cut off
func formFile(c *gin.Context) (*multipart.FileHeader, bool) {
	fh, err := c.FormFile("file")
	if err == nil {
		return fh, true
	}

	if middleware.IsBodyTooLarge(err) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":     "Request body size exceeds limit",
			"requestID": c.GetString("requestID"),
		})
		return nil, false
	}

	badRequest(c, "No file provided")
	return nil, false
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     msg,
		"requestID": c.GetString("requestID"),
	})
}

// link is a presigned download URL kept in the cache until half its
// lifetime is gone
type link struct {
	URL     string
	Expires time.Time
}

func linkKey(bucketFileID string) string {
	return "link:" + bucketFileID
}

// downloadLink presigns f's object or reuses a cached link for it. Callers
// must have authorized the download already.
func downloadLink(ctx context.Context, d *internal.Deps, f *model.File) (link, error) {
	var l link

	if d.Cache != nil {
		if err := d.Cache.Get(linkKey(f.BucketFileID), &l); err == nil {
			return l, nil
		}
	}

	url, err := d.Objects.PresignGet(ctx, f.BucketFileID, d.PresignTTL, f.Name)
	if err != nil {
		return link{}, err
	}

	l = link{URL: url, Expires: time.Now().Add(d.PresignTTL)}

	if d.Cache != nil && d.PresignTTL >= 2*time.Second {
		if err := d.Cache.Set(linkKey(f.BucketFileID), l, d.PresignTTL/2); err != nil {
			zap.L().Debug("Failed to cache download link", zap.String("key", f.BucketFileID), zap.Error(err))
		}
	}

	return l, nil
}

// forgetLink drops a cached link once the name it was signed with or the
// object behind it changes
func forgetLink(d *internal.Deps, bucketFileID string) {
	if d.Cache == nil {
		return
	}

	if err := d.Cache.Delete(linkKey(bucketFileID)); err != nil && !errors.Is(err, persist.ErrCacheMiss) && !errors.Is(err, ttlcache.ErrNotFound) {
		zap.L().Debug("Failed to drop cached download link", zap.String("key", bucketFileID), zap.Error(err))
	}
}
