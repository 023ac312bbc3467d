package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	// Registers the webp decoder with image.Decode
	_ "golang.org/x/image/webp"
)

var ocrExtensions = []string{"jpg", "jpeg", "png", "webp", "svg"}

// Tesseract reads small text badly, anything narrower gets upscaled first
const minOCRWidth = 1600

// OCR runs images through the tesseract CLI. Raster images are converted to an
// upscaled grayscale PNG beforehand.
type OCR struct {
	Command  string
	Language string
}

// NewOCR returns an OCR extractor, empty values fall back to "tesseract" and
// English
func NewOCR(command, language string) *OCR {
	if command == "" {
		command = "tesseract"
	}
	if language == "" {
		language = "eng"
	}

	return &OCR{Command: command, Language: language}
}

func (o *OCR) Name() string { return "ocr" }

func (o *OCR) Supports(mimeType, ext string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}

	return generic(mimeType) && slices.Contains(ocrExtensions, ext)
}

func (o *OCR) Extract(ctx context.Context, path string) (string, error) {
	input := path

	prepared, err := preprocess(path)
	if err != nil {
		// tesseract can often still read what the decoder can't
		zap.L().Debug("Skipping OCR preprocessing", zap.String("path", path), zap.Error(err))
	} else {
		defer os.Remove(prepared)
		input = prepared
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, o.Command, input, "stdout", "-l", o.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run %s, %w: %s", o.Command, err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// preprocess writes a grayscale, upscaled PNG copy of the image and returns
// its path. The caller removes it.
func preprocess(path string) (string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image, %w", err)
	}

	img = imaging.Grayscale(img)
	if w := img.Bounds().Dx(); w > 0 && w < minOCRWidth {
		img = imaging.Resize(img, minOCRWidth, 0, imaging.Lanczos)
	}

	temp, err := os.CreateTemp("", "ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file, %w", err)
	}
	temp.Close()

	if err := imaging.Save(img, temp.Name()); err != nil {
		os.Remove(temp.Name())
		return "", fmt.Errorf("failed to write %s, %w", filepath.Base(temp.Name()), err)
	}

	return temp.Name(), nil
}
