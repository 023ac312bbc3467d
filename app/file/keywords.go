package file

import (
	"net/http"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/ingest"
	"github.com/YashLoriya02/storage-management/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type keywordsBody struct {
	ref
	Keywords []string `json:"keywords"`
}

// FileAddKeywords merges user supplied keywords into a file's set
func FileAddKeywords(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body keywordsBody
	if err := c.ShouldBindJSON(&body); err != nil || body.empty() {
		badRequest(c, "No file ID provided")
		return
	}

	if err := validators.KeywordsValidator(body.Keywords); err != nil {
		badRequest(c, err.Error())
		return
	}

	f, err := d.Files.AddKeywords(c.Request.Context(), requester(c), body.fileRef(), body.Keywords)
	if err != nil {
		serviceError(c, err, "Failed to add keywords")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Keywords added",
		"file":      f,
		"requestID": requestID,
	})
}

// FileGenerateKeywords extracts and tags an uploaded copy of a file while the
// client waits. Failures give an empty list, only a missing file is an error.
func FileGenerateKeywords(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body ref
	if err := c.ShouldBind(&body); err != nil || body.empty() {
		badRequest(c, "No file ID provided")
		return
	}

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

	f, err := d.Files.Authorize(c.Request.Context(), requester(c), body.fileRef(), access.ActionRename)
	if err != nil {
		serviceError(c, err, "Failed to load file for tagging")
		return
	}

	job := ingest.NewJob(f.ID, f.BucketFileID, f.Name, upload.MimeType, upload.Extension)
	job.Source = upload

	res := d.Orchestrator.Run(c.Request.Context(), job)
	if res.Err != nil {
		zap.L().Warn("Keyword generation failed", zap.String("requestID", requestID), zap.Uint("file_id", f.ID), zap.Error(res.Err))

		c.JSON(http.StatusOK, gin.H{
			"keywords":  []string{},
			"state":     res.State,
			"error":     "Failed to generate keywords",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"keywords":  res.Keywords,
		"state":     res.State,
		"requestID": requestID,
	})
}
