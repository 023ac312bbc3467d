package internal

import (
	"time"

	"github.com/YashLoriya02/storage-management/internal/catalog"
	"github.com/YashLoriya02/storage-management/internal/ingest"
	"github.com/YashLoriya02/storage-management/internal/service"
	"github.com/YashLoriya02/storage-management/internal/storage"

	"github.com/chenyahui/gin-cache/persist"
	"gorm.io/gorm"
)

// Deps is everything the handlers need. It's built once in app.Setup.
type Deps struct {
	DB           *gorm.DB
	Objects      storage.ObjectStore
	Files        *service.Files
	Catalog      *catalog.Catalog
	Queue        ingest.Queue
	Orchestrator *ingest.Orchestrator
	// Cache holds presigned download links, handlers drop a link on rename and delete
	Cache persist.CacheStore

	MaxUploadSize int64
	PresignTTL    time.Duration
}
