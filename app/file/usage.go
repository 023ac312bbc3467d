package file

import (
	"net/http"

	"github.com/YashLoriya02/storage-management/internal"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileUsage returns the storage used per type across every visible file
func FileUsage(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	usage, err := d.Catalog.AggregateUsage(c.Request.Context(), requester(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to aggregate usage", zap.String("requestID", requestID), zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, usage)
}
