package user

import (
	"net/http"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserFetch returns the user, their usage and the most recent files they can see
func UserFetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	r := access.Requester{UserID: user.ID, Email: c.GetString("email")}

	files, err := d.Catalog.Recent(c.Request.Context(), r, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch initial user data", zap.Error(err))
		return
	}

	usage, err := d.Catalog.AggregateUsage(c.Request.Context(), r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch initial user data", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"files": files,
		"usage": usage,
	})
}
