package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the text layer of a PDF. Scanned PDFs without one give empty
// text.
type PDF struct{}

func (PDF) Name() string { return "pdf" }

func (PDF) Supports(mimeType, ext string) bool {
	return mimeType == "application/pdf" || (generic(mimeType) && ext == "pdf")
}

func (PDF) Extract(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf, %w", err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text, %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(text); err != nil {
		return "", fmt.Errorf("failed to read pdf text, %w", err)
	}

	return buf.String(), nil
}
