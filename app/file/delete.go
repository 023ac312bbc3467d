package file

import (
	"errors"
	"net/http"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/service"

	"github.com/gin-gonic/gin"
)

// FileDelete removes a file the user owns along with its stored object
func FileDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body ref
	if err := c.ShouldBindJSON(&body); err != nil || body.empty() {
		badRequest(c, "No file ID provided")
		return
	}

	f, err := d.Files.Delete(c.Request.Context(), requester(c), body.fileRef())
	if f != nil {
		forgetLink(d, f.BucketFileID)
	}

	if err != nil {
		if errors.Is(err, service.ErrObjectCleanup) {
			// Metadata is gone, the object is queued for another attempt
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "File deleted but its data couldn't be removed yet",
				"requestID": requestID,
			})
			return
		}

		serviceError(c, err, "Failed to delete file")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "File deleted successfully",
		"requestID": requestID,
	})
}
