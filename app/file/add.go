package file

import (
	"net/http"

	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/ingest"
	"github.com/YashLoriya02/storage-management/internal/model"
	"github.com/YashLoriya02/storage-management/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type addFileBody struct {
	Type         string               `json:"type"`
	Name         string               `json:"name"`
	URL          string               `json:"url"`
	Extension    string               `json:"extension"`
	MimeType     string               `json:"mimeType"`
	Size         int64                `json:"size"`
	Owner        string               `json:"owner"`
	AccountID    string               `json:"accountId"`
	Users        []service.GrantInput `json:"users"`
	BucketFileID string               `json:"bucketFileId"`
	BucketID     string               `json:"bucketId"`
}

// FileAdd registers metadata for an object that was already stored
func FileAdd(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var body addFileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	f, err := d.Files.Create(c.Request.Context(), requester(c), service.CreateInput{
		Type:         body.Type,
		Name:         body.Name,
		URL:          body.URL,
		Extension:    body.Extension,
		MimeType:     body.MimeType,
		Size:         body.Size,
		OwnerID:      body.Owner,
		AccountID:    body.AccountID,
		BucketFileID: body.BucketFileID,
		BucketID:     body.BucketID,
		Grants:       body.Users,
	})
	if err != nil {
		serviceError(c, err, "Failed to add file")
		return
	}

	// Objects in our own bucket can be tagged right away, others wait for
	// generateKeywords
	if d.Objects != nil && f.BucketID == d.Objects.Bucket() {
		enqueue(c, d, f)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "File added successfully",
		"file":      f,
		"requestID": requestID,
	})
}

// enqueue hands the file to the ingestion pipeline. The caller never waits
// for it and a full queue only leaves the file untagged.
func enqueue(c *gin.Context, d *internal.Deps, f *model.File) {
	if d.Queue == nil {
		return
	}

	job := ingest.NewJob(f.ID, f.BucketFileID, f.Name, f.MimeType, f.Extension)
	if err := d.Queue.Submit(c.Request.Context(), job); err != nil {
		zap.L().Warn("Failed to queue ingestion job",
			zap.String("requestID", c.GetString("requestID")),
			zap.Uint("file_id", f.ID),
			zap.Error(err),
		)
	}
}
