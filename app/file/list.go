package file

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/catalog"
	"github.com/YashLoriya02/storage-management/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxLimit = 250

// FileList returns the files the user can see, filtered and sorted
func FileList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	r := requester(c)

	// Older clients send their identity along, it has to be their own
	if id := c.Query("ownerId"); id != "" && id != r.UserID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "You can only list your own files",
			"requestID": requestID,
		})
		return
	}

	if email := c.Query("email"); email != "" && model.NormalizeEmail(email) != r.Email {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "You can only list your own files",
			"requestID": requestID,
		})
		return
	}

	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || n > maxLimit {
			badRequest(c, "Invalid limit provided")
			return
		}
		limit = n
	}

	files, err := d.Catalog.ListFiles(c.Request.Context(), r, catalog.Options{
		Types:      queryList(c, "types"),
		SearchText: c.Query("searchText"),
		Sort:       catalog.ParseSort(c.DefaultQuery("sort", catalog.DefaultSort.String())),
		Limit:      limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list files", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	if files == nil {
		files = []model.File{}
	}

	c.JSON(http.StatusOK, files)
}

// queryList accepts both ?types=a,b and ?types=a&types=b
func queryList(c *gin.Context, key string) []string {
	var out []string

	for _, raw := range c.QueryArray(key) {
		for v := range strings.SplitSeq(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}

	return out
}
