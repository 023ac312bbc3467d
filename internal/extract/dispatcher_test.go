package extract

import (
	"archive/zip"
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func writeDocx(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return path
}

func TestExtractTextPlain(t *testing.T) {
	const content = "Quarterly Report for Acme Corp, Q3 2024\n  indented\ttab\n"
	path := writeFile(t, "report.txt", content)

	d := Default(NewOCR("", ""))

	text, err := d.ExtractText(context.Background(), path, "text/plain; charset=utf-8", "txt")
	require.NoError(t, err)
	assert.Equal(t, content, text)

	text, err = d.ExtractText(context.Background(), path, "", ".TXT")
	require.NoError(t, err)
	assert.Equal(t, content, text)
}

func TestExtractTextUnsupported(t *testing.T) {
	path := writeFile(t, "data.xyz", "whatever")
	d := Default(NewOCR("", ""))

	_, err := d.ExtractText(context.Background(), path, "application/x-unknown", "xyz")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.NotErrorIs(t, err, ErrExtractionFailed)

	assert.False(t, d.Supported("application/zip", "zip"))
	assert.True(t, d.Supported("application/octet-stream", "png"))
}

func TestExtractTextDocx(t *testing.T) {
	path := writeDocx(t,
		`<w:p><w:r><w:t>Invoice</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> 2024 </w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Acme</w:t><w:br/><w:t>Corp</w:t></w:r></w:p>`)

	// Octet stream upload identified by extension only
	text, err := Default(NewOCR("", "")).ExtractText(context.Background(), path, "application/octet-stream", "docx")
	require.NoError(t, err)
	assert.Equal(t, "Invoice\t 2024 \nAcme\nCorp\n", text)
}

func TestExtractTextDocxWithoutBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, zip.NewWriter(f).Close())
	require.NoError(t, f.Close())

	_, err = Default(NewOCR("", "")).ExtractText(context.Background(), path, docxMIME, "docx")
	assert.ErrorIs(t, err, ErrExtractionFailed)

	var exErr *ExtractionError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, "docx", exErr.Format)
}

func TestExtractTextBrokenPDF(t *testing.T) {
	path := writeFile(t, "broken.pdf", "not really a pdf")

	_, err := Default(NewOCR("", "")).ExtractText(context.Background(), path, "application/pdf", "pdf")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

type panicky struct{}

func (panicky) Name() string                 { return "panicky" }
func (panicky) Supports(string, string) bool { return true }

func (panicky) Extract(context.Context, string) (string, error) {
	panic("malformed xref table")
}

func TestExtractorPanicIsContained(t *testing.T) {
	_, err := New(panicky{}).ExtractText(context.Background(), "/nonexistent", "application/pdf", "pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Contains(t, err.Error(), "malformed xref table")
}

func TestDispatchOrder(t *testing.T) {
	ocr := NewOCR("", "")

	tests := []struct {
		mime string
		ext  string
		want string
	}{
		{"application/pdf", "pdf", "pdf"},
		{"", "pdf", "pdf"},
		{docxMIME, "bin", "docx"},
		{"text/plain", "docx", "docx"},
		{"image/jpeg", "txt", "ocr"},
		{"image/svg+xml", "svg", "ocr"},
		{"application/octet-stream", "webp", "ocr"},
		{"", "jpeg", "ocr"},
		{"application/json", "png", ""},
		{"text/plain", "md", "text"},
		{"application/json", "txt", "text"},
		{"application/json", "json", ""},
	}

	extractors := []Extractor{PDF{}, DOCX{}, ocr, Text{}}

	for _, tt := range tests {
		t.Run(tt.mime+"/"+tt.ext, func(t *testing.T) {
			got := ""
			for _, e := range extractors {
				if e.Supports(normalizeMIME(tt.mime), tt.ext) {
					got = e.Name()
					break
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOCRRunsCommandOnPreprocessedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, imaging.Save(imaging.New(40, 20, color.White), path))

	// echo prints its arguments, which stands in for tesseract's stdout
	text, err := (&OCR{Command: "echo", Language: "eng"}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "stdout -l eng")
	assert.NotContains(t, text, path, "tesseract should get the preprocessed copy")
}

func TestPreprocessUpscales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.png")
	require.NoError(t, imaging.Save(imaging.New(100, 50, color.Black), path))

	out, err := preprocess(path)
	require.NoError(t, err)
	defer os.Remove(out)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, minOCRWidth, img.Bounds().Dx())
	assert.Equal(t, minOCRWidth/2, img.Bounds().Dy())
}
