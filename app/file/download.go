package file

import (
	"errors"
	"net/http"
	"time"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileDownload returns a short lived link to the stored object
func FileDownload(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	fr, ok := pathRef(c)
	if !ok {
		badRequest(c, "No file ID provided")
		return
	}

	f, err := d.Files.Authorize(c.Request.Context(), requester(c), fr, access.ActionDownload)
	if err != nil {
		serviceError(c, err, "Failed to load file for download")
		return
	}

	l, err := downloadLink(c.Request.Context(), d, f)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "File data not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to presign download", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       l.URL,
		"expiresIn": int(time.Until(l.Expires).Seconds()),
		"requestID": requestID,
	})
}
