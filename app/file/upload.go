package file

import (
	"context"
	"net/http"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/service"
	"github.com/YashLoriya02/storage-management/pkg/util"
	"github.com/YashLoriya02/storage-management/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileUpload stores a file, registers it and queues it for tagging. The
// response doesn't wait for tagging.
func FileUpload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	r := requester(c)
	accountID := c.GetString("accountID")

	fh, ok := formFile(c)
	if !ok {
		return
	}

	code, upload, err := validators.FileValidator(fh, d.MaxUploadSize)
	if err != nil {
		c.JSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer upload.Close()

	used, err := d.Catalog.OwnedSize(c.Request.Context(), r.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check used storage", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	if used+upload.Size > d.Catalog.Capacity() {
		c.JSON(http.StatusConflict, gin.H{
			"error":     validators.ErrNoSpace.Error(),
			"requestID": requestID,
		})
		return
	}

	key := util.ObjectKey(upload.Extension)

	obj, err := d.Objects.Put(c.Request.Context(), key, upload, upload.Size, upload.MimeType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store uploaded file", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	f, err := d.Files.Create(c.Request.Context(), r, service.CreateInput{
		Type:         upload.Type,
		Name:         upload.Name,
		URL:          obj.URL,
		Extension:    upload.Extension,
		MimeType:     upload.MimeType,
		Size:         obj.Size,
		OwnerID:      r.UserID,
		AccountID:    accountID,
		BucketFileID: obj.Key,
		BucketID:     obj.Bucket,
	})
	if err != nil {
		// Don't leave an object nothing points at
		if delErr := d.Objects.Delete(context.WithoutCancel(c.Request.Context()), obj.Key); delErr != nil {
			zap.L().Error("Failed to remove object after failed upload", zap.String("key", obj.Key), zap.Error(delErr))
		}

		serviceError(c, err, "Failed to register uploaded file")
		return
	}

	enqueue(c, d, f)

	c.JSON(http.StatusCreated, gin.H{
		"message":   "File uploaded successfully",
		"file":      f,
		"requestID": requestID,
	})
}
