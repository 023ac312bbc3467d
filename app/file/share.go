package file

import (
	"net/http"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/service"

	"github.com/gin-gonic/gin"
)

type shareBody struct {
	ref
	Users []service.GrantInput `json:"users"`
	// IsRemove replaces the whole grant set with Users
	IsRemove bool `json:"isRemove"`
}

// FileShare adds collaborators to a file or replaces them
func FileShare(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body shareBody
	if err := c.ShouldBindJSON(&body); err != nil || body.empty() {
		badRequest(c, "No file ID provided")
		return
	}

	f, err := d.Files.Share(c.Request.Context(), requester(c), body.fileRef(), body.Users, body.IsRemove)
	if err != nil {
		serviceError(c, err, "Failed to share file")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "File shared",
		"file":      f,
		"requestID": requestID,
	})
}
