package extract

import (
	"context"
	"fmt"
	"os"
)

// Text returns plain text files verbatim
type Text struct{}

func (Text) Name() string { return "text" }

func (Text) Supports(mimeType, ext string) bool {
	return mimeType == "text/plain" || ext == "txt"
}

func (Text) Extract(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file, %w", err)
	}

	return string(b), nil
}
