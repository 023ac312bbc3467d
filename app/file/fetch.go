package file

import (
	"net/http"
	"strconv"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/service"

	"github.com/gin-gonic/gin"
)

// pathRef reads :id, which is either a numeric file ID or an object key
func pathRef(c *gin.Context) (service.FileRef, bool) {
	id := c.Param("id")
	if id == "" {
		return service.FileRef{}, false
	}

	if n, err := strconv.ParseUint(id, 10, 0); err == nil {
		return service.FileRef{ID: uint(n)}, true
	}

	return service.FileRef{BucketFileID: id}, true
}

// FileFetch returns a single file with the actions the user may perform on it
func FileFetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	r := requester(c)

	fr, ok := pathRef(c)
	if !ok {
		badRequest(c, "No file ID provided")
		return
	}

	f, err := d.Files.Authorize(c.Request.Context(), r, fr, access.ActionViewDetails)
	if err != nil {
		serviceError(c, err, "Failed to fetch file")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file":      f,
		"actions":   access.Allowed(r, f),
		"requestID": requestID,
	})
}
