// Package ingest runs the post-upload pipeline: fetch the stored file,
// extract its text, tag it and merge the keywords into its metadata.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/YashLoriya02/storage-management/internal/model"
	"github.com/YashLoriya02/storage-management/internal/storage"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

var errEmptyText = errors.New("no text extracted")

// TextExtractor is implemented by *extract.Dispatcher
type TextExtractor interface {
	ExtractText(ctx context.Context, path, declaredMIME, ext string) (string, error)
}

// KeywordTagger is implemented by *tagger.Tagger
type KeywordTagger interface {
	Tag(ctx context.Context, text string, maxKeywords int, hintName string) ([]string, error)
}

// FileStore persists pipeline progress on a file row
type FileStore interface {
	State(ctx context.Context, fileID uint) (string, error)
	SetState(ctx context.Context, fileID uint, state string) error
	// MergeKeywords unions keywords into the stored set and sets state in the
	// same transaction, returning the merged set
	MergeKeywords(ctx context.Context, fileID uint, keywords []string, state string) (model.StringSlice, error)
}

// Notifier is told about every finished run
type Notifier interface {
	Notify(ctx context.Context, r Result) error
}

type Orchestrator struct {
	Objects   storage.ObjectStore
	Files     FileStore
	Extractor TextExtractor
	Tagger    KeywordTagger
	Notifier  Notifier // Optional

	MaxKeywords    int
	ExtractTimeout time.Duration
	// TempDir holds the local copies, empty means os.TempDir
	TempDir string
}

// Run executes the pipeline for one job. It never returns an error: every
// failure is logged and the file ends up extraction_skipped, or stays tagged
// if it already was. The result is also sent on job.Done.
func (o *Orchestrator) Run(ctx context.Context, job *Job) Result {
	var (
		res     Result
		catcher panics.Catcher
	)

	skipped := o.skippedState(ctx, job)

	catcher.Try(func() {
		res = o.run(ctx, job, skipped)
	})

	if r := catcher.Recovered(); r != nil {
		zap.L().Error("Ingestion pipeline panicked", zap.String("job_id", job.ID), zap.String("panic", r.String()))

		res = Result{State: skipped, Err: r.AsError()}
		o.setState(ctx, job, res.State)
	}

	res.JobID = job.ID
	res.FileID = job.FileID

	if o.Notifier != nil {
		if err := o.Notifier.Notify(ctx, res); err != nil {
			zap.L().Warn("Failed to publish ingestion result", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	job.finish(res)
	return res
}

// skippedState is where a run that tags nothing leaves the file. Regenerating
// keywords for a tagged file mustn't throw away that it was tagged.
func (o *Orchestrator) skippedState(ctx context.Context, job *Job) string {
	prior, err := o.Files.State(ctx, job.FileID)
	if err != nil {
		zap.L().Warn("Failed to read file state", zap.Uint("file_id", job.FileID), zap.Error(err))
	}

	if prior == model.StateTagged {
		return model.StateTagged
	}

	return model.StateExtractionSkipped
}

func (o *Orchestrator) run(ctx context.Context, job *Job, skipped string) Result {
	skip := func(err error) Result {
		if errors.Is(err, errEmptyText) {
			zap.L().Debug("Nothing to tag", zap.String("job_id", job.ID), zap.Uint("file_id", job.FileID))
		} else {
			zap.L().Warn("Ingestion skipped", zap.String("job_id", job.ID), zap.Uint("file_id", job.FileID), zap.Error(err))
		}

		o.setState(ctx, job, skipped)
		return Result{State: skipped, Err: err}
	}

	o.setState(ctx, job, model.StateExtracting)

	text, err := o.extract(ctx, job)
	if err != nil {
		return skip(err)
	}

	if strings.TrimSpace(text) == "" {
		return skip(errEmptyText)
	}

	o.setState(ctx, job, model.StateTagging)

	keywords, err := o.Tagger.Tag(ctx, text, o.MaxKeywords, job.Name)
	if err != nil {
		return skip(err)
	}

	merged, err := o.Files.MergeKeywords(ctx, job.FileID, keywords, model.StateTagged)
	if err != nil {
		return skip(fmt.Errorf("failed to save keywords, %w", err))
	}

	zap.L().Debug("File tagged", zap.String("job_id", job.ID), zap.Uint("file_id", job.FileID), zap.Int("keywords", len(merged)))
	return Result{State: model.StateTagged, Keywords: merged}
}

// extract copies the bytes into a temporary file that only lives for the
// duration of the call, on every exit path.
func (o *Orchestrator) extract(ctx context.Context, job *Job) (string, error) {
	pattern := "ingest-*"
	if ext := strings.TrimPrefix(job.Extension, "."); ext != "" {
		pattern += "." + ext
	}

	temp, err := os.CreateTemp(o.TempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file, %w", err)
	}
	defer os.Remove(temp.Name())
	defer temp.Close()

	src := job.Source
	if src == nil {
		body, err := o.Objects.Get(ctx, job.Key)
		if err != nil {
			return "", fmt.Errorf("failed to fetch object, %w", err)
		}
		defer body.Close()

		src = body
	}

	if _, err := io.Copy(temp, src); err != nil {
		return "", fmt.Errorf("failed to copy file, %w", err)
	}

	if err := temp.Close(); err != nil {
		return "", fmt.Errorf("failed to flush temporary file, %w", err)
	}

	if o.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.ExtractTimeout)
		defer cancel()
	}

	return o.Extractor.ExtractText(ctx, temp.Name(), job.MimeType, job.Extension)
}

func (o *Orchestrator) setState(ctx context.Context, job *Job, state string) {
	if err := o.Files.SetState(ctx, job.FileID, state); err != nil {
		zap.L().Error("Failed to update file state", zap.Uint("file_id", job.FileID), zap.String("state", state), zap.Error(err))
	}
}
