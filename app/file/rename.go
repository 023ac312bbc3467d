package file

import (
	"net/http"

	"github.com/YashLoriya02/storage-management/internal"

	"github.com/gin-gonic/gin"
)

type renameBody struct {
	ref
	Name string `json:"name"`
}

func FileRename(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body renameBody
	if err := c.ShouldBindJSON(&body); err != nil || body.empty() {
		badRequest(c, "No file ID provided")
		return
	}

	f, err := d.Files.Rename(c.Request.Context(), requester(c), body.fileRef(), body.Name)
	if err != nil {
		serviceError(c, err, "Failed to rename file")
		return
	}

	forgetLink(d, f.BucketFileID)

	c.JSON(http.StatusOK, gin.H{
		"message":   "File renamed",
		"file":      f,
		"requestID": requestID,
	})
}
