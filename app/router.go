// Package app wires the HTTP API together
package app

import (
	"time"

	"github.com/YashLoriya02/storage-management/app/file"
	"github.com/YashLoriya02/storage-management/app/root"
	"github.com/YashLoriya02/storage-management/app/user"
	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/pkg/middleware"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewRouter returns the engine serving every /api route
func NewRouter(d *internal.Deps) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     viper.GetStringSlice("host.cors_origins"),
			AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true
	router.MaxMultipartMemory = 8 << 20

	rateLimit := viper.GetInt("security.rate_limit")

	jwt := middleware.NewJWTMiddleware(d.DB, middleware.NewUserCache(time.Minute), viper.GetString("jwt.secret"))
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: rateLimit,
		Burst:             rateLimit * 2,
	})
	jsonBody := middleware.BodySizeLimiter(1 << 20)
	uploadBody := middleware.BodySizeLimiter(d.MaxUploadSize + 1<<20)

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })
	}

	u := m.Group("/users", jwt)
	{
		// GET /api/users		-> Returns the user, their usage and recent files
		u.GET("", func(c *gin.Context) { user.UserFetch(c, d) })
	}

	f := m.Group("/files", jwt)
	{
		// POST /api/files/addFile		-> Registers an already stored object
		f.POST("/addFile", jsonBody, func(c *gin.Context) { file.FileAdd(c, d) })
		f.POST("/addFiles", jsonBody, func(c *gin.Context) { file.FileAdd(c, d) })

		// GET /api/files/listFiles		-> Lists, searches and sorts visible files
		f.GET("/listFiles", func(c *gin.Context) { file.FileList(c, d) })
		f.GET("/getFiles", func(c *gin.Context) { file.FileList(c, d) })

		// POST /api/files/deleteFile	-> Deletes a file and its stored object
		f.POST("/deleteFile", jsonBody, func(c *gin.Context) { file.FileDelete(c, d) })

		// POST /api/files/shareFile		-> Adds or replaces collaborators
		f.POST("/shareFile", jsonBody, func(c *gin.Context) { file.FileShare(c, d) })

		// POST /api/files/renameFile	-> Renames a file
		f.POST("/renameFile", jsonBody, func(c *gin.Context) { file.FileRename(c, d) })

		// POST /api/files/addCustomKeywords	-> Adds keywords to a file
		f.POST("/addCustomKeywords", jsonBody, func(c *gin.Context) { file.FileAddKeywords(c, d) })

		// POST /api/files/generateKeywords	-> Extracts and tags a file while the client waits
		f.POST("/generateKeywords", uploadBody, func(c *gin.Context) { file.FileGenerateKeywords(c, d) })

		// POST /api/files/upload		-> Stores, registers and queues a file for tagging
		f.POST("/upload", uploadBody, func(c *gin.Context) { file.FileUpload(c, d) })

		// GET /api/files/usage		-> Storage used per file type
		f.GET("/usage", func(c *gin.Context) { file.FileUsage(c, d) })

		// GET /api/files/:id		-> Returns a file the user can see
		f.GET("/:id", func(c *gin.Context) { file.FileFetch(c, d) })

		// GET /api/files/:id/download	-> Returns a presigned download link
		f.GET("/:id/download", func(c *gin.Context) { file.FileDownload(c, d) })
	}

	return router
}
