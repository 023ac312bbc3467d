package ingest

import (
	"io"

	"github.com/YashLoriya02/storage-management/pkg/util"
)

// Job asks for one stored file to be extracted and tagged
type Job struct {
	ID        string `json:"id"`
	FileID    uint   `json:"fileId"`
	Key       string `json:"key"` // Object store key
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`

	// Source supplies the bytes directly instead of fetching Key. Jobs with a
	// source can only run in process.
	Source io.Reader `json:"-"`

	// Done receives the result once and is then closed. It's buffered so the
	// worker never blocks on a caller that stopped listening.
	Done chan Result `json:"-"`
}

// Result is the outcome of one pipeline run
type Result struct {
	JobID    string
	FileID   uint
	State    string
	Keywords []string // The merged keyword set, empty unless this run tagged the file
	Err      error    // Why the run tagged nothing, if it didn't
}

// NewJob returns a job for a stored file with a fresh ID and Done channel
func NewJob(fileID uint, key, name, mimeType, ext string) *Job {
	return &Job{
		ID:        util.RandStr(12),
		FileID:    fileID,
		Key:       key,
		Name:      name,
		MimeType:  mimeType,
		Extension: ext,
		Done:      make(chan Result, 1),
	}
}

func (j *Job) finish(r Result) {
	if j.Done == nil {
		return
	}

	j.Done <- r
	close(j.Done)
}
