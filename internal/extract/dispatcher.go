// Package extract pulls plain text out of uploaded documents
package extract

import (
	"context"
	"mime"
	"slices"
	"strings"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// Extractor reads the text of one document format
type Extractor interface {
	// Name is used in errors and logs
	Name() string
	// Supports reports whether the extractor handles a file. mimeType is
	// lowercase without parameters, ext is lowercase without the dot.
	Supports(mimeType, ext string) bool
	Extract(ctx context.Context, path string) (string, error)
}

// Dispatcher picks the first extractor that supports a file
type Dispatcher struct {
	extractors []Extractor
}

// New returns a dispatcher trying extractors in order
func New(extractors ...Extractor) *Dispatcher {
	return &Dispatcher{extractors: extractors}
}

// Default returns the PDF, DOCX, OCR and plain text extractors in that order
func Default(ocr *OCR) *Dispatcher {
	return New(PDF{}, DOCX{}, ocr, Text{})
}

// ExtractText returns the text of the file at path. The declared MIME type
// wins, the extension is used when the type is missing or generic. Empty text
// is a valid result.
func (d *Dispatcher) ExtractText(ctx context.Context, path, declaredMIME, ext string) (string, error) {
	mimeType := normalizeMIME(declaredMIME)
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))

	for _, e := range d.extractors {
		if !e.Supports(mimeType, ext) {
			continue
		}

		zap.L().Debug("Extracting text",
			zap.String("extractor", e.Name()),
			zap.String("mime", mimeType),
			zap.String("ext", ext),
		)

		return run(ctx, e, path)
	}

	return "", ErrUnsupportedFormat
}

// Supported reports whether any extractor would handle the file
func (d *Dispatcher) Supported(declaredMIME, ext string) bool {
	mimeType := normalizeMIME(declaredMIME)
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))

	return slices.ContainsFunc(d.extractors, func(e Extractor) bool {
		return e.Supports(mimeType, ext)
	})
}

// run contains panics from third party parsers
func run(ctx context.Context, e Extractor, path string) (string, error) {
	var (
		text    string
		err     error
		catcher panics.Catcher
	)

	catcher.Try(func() {
		text, err = e.Extract(ctx, path)
	})

	if r := catcher.Recovered(); r != nil {
		zap.L().Error("Extractor panicked", zap.String("extractor", e.Name()), zap.String("panic", r.String()))
		return "", &ExtractionError{Format: e.Name(), Err: r.AsError()}
	}

	if err != nil {
		return "", &ExtractionError{Format: e.Name(), Err: err}
	}

	return text, nil
}

func normalizeMIME(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	if parsed, _, err := mime.ParseMediaType(s); err == nil {
		return parsed
	}

	return s
}

// generic reports whether the MIME type says nothing about the content
func generic(mimeType string) bool {
	return mimeType == "" || mimeType == "application/octet-stream"
}
