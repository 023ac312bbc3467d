package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/YashLoriya02/storage-management/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailValidator(t *testing.T) {
	tests := []struct {
		email string
		want  error
	}{
		{"bob@example.com", nil},
		{"", ErrEmailEmpty},
		{"not an email", ErrEmailInvalid},
		{"Bob <bob@example.com>", ErrEmailInvalid},
		{" carol@example.com ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.ErrorIs(t, EmailValidator(tt.email), tt.want)
		})
	}
}

func TestTypeFromExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"pdf", model.TypeDocument},
		{".DOCX", model.TypeDocument},
		{"png", model.TypeImage},
		{"mkv", model.TypeVideo},
		{"flac", model.TypeAudio},
		{"exe", model.TypeOther},
		{"", model.TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeFromExtension(tt.ext))
		})
	}

	assert.Equal(t, "pdf", Extension("Invoice.2024.PDF"))
	assert.Empty(t, Extension("README"))
}

func TestKeywordsValidator(t *testing.T) {
	assert.NoError(t, KeywordsValidator([]string{"finance", " "}))
	assert.ErrorIs(t, KeywordsValidator(nil), ErrNoKeywords)
	assert.ErrorIs(t, KeywordsValidator([]string{" ", ""}), ErrNoKeywords)
	assert.ErrorIs(t, KeywordsValidator([]string{strings.Repeat("k", 101)}), ErrKeywordTooLong)
	assert.ErrorIs(t, KeywordsValidator(make([]string, 51)), ErrTooManyKeywords)
}

func formFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["file"][0]
}

func TestFileValidator(t *testing.T) {
	fh := formFile(t, "Report.TXT", []byte("Quarterly Report for Acme Corp, Q3 2024"))

	code, f, err := FileValidator(fh, 1<<20)
	require.NoError(t, err)
	defer f.Close()

	assert.Zero(t, code)
	assert.Equal(t, "Report.TXT", f.Name)
	assert.Equal(t, "txt", f.Extension)
	assert.Equal(t, model.TypeDocument, f.Type)
	assert.True(t, strings.HasPrefix(f.MimeType, "text/plain"), f.MimeType)
	assert.EqualValues(t, 39, f.Size)
}

func TestFileValidatorRejects(t *testing.T) {
	code, _, err := FileValidator(nil, 10)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.ErrorIs(t, err, ErrNoFile)

	code, _, err = FileValidator(formFile(t, "big.txt", bytes.Repeat([]byte("a"), 64)), 10)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	code, _, err = FileValidator(formFile(t, strings.Repeat("n", 300)+".txt", []byte("x")), 10)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.ErrorIs(t, err, ErrFileNameTooLong)
}
