package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrFileNameTooLong = errors.New("file name is too long")
	ErrNoFile          = errors.New("no file provided")
	ErrNoSpace         = errors.New("not enough space")
)

const maxFileNameSize = 255

// UploadedFile is a multipart file that passed FileValidator
type UploadedFile struct {
	multipart.File

	Name      string
	Extension string // lowercase, without the dot
	Size      int64
	// MimeType is sniffed from the content, the client's header is only used
	// when sniffing can't tell more than application/octet-stream
	MimeType string
	Type     string
}

// FileValidator checks an uploaded file against maxSize and sniffs its type.
// The returned status code is meant for the response when err isn't nil. The
// caller closes the file.
func FileValidator(fh *multipart.FileHeader, maxSize int64) (int, *UploadedFile, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	name := filepath.Base(strings.TrimSpace(fh.Filename))
	if name == "" || name == "." || name == "/" {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	if len(name) > maxFileNameSize {
		return http.StatusBadRequest, nil, ErrFileNameTooLong
	}

	// Header size is easy to spoof, but it's a cheap reject for legit clients
	if maxSize > 0 && fh.Size > maxSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	// Then check the real size
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	if maxSize > 0 && size > maxSize {
		f.Close()
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	mimeType := mime.String()
	if mime.Is("application/octet-stream") {
		if ct := fh.Header.Get("Content-Type"); ct != "" {
			mimeType = ct
		}
	}

	ext := Extension(name)

	return 0, &UploadedFile{
		File:      f,
		Name:      name,
		Extension: ext,
		Size:      size,
		MimeType:  mimeType,
		Type:      TypeFromExtension(ext),
	}, nil
}
