package validators

import (
	"path/filepath"
	"strings"

	"github.com/YashLoriya02/storage-management/internal/model"
)

var extensionTypes = map[string]string{}

func init() {
	for t, exts := range map[string][]string{
		model.TypeDocument: {"pdf", "doc", "docx", "txt", "xls", "xlsx", "csv", "rtf", "ods", "ppt", "pptx", "odp", "md", "html", "htm", "epub", "pages", "fig", "psd", "ai", "indd", "xd", "sketch", "afdesign", "afphoto"},
		model.TypeImage:    {"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp"},
		model.TypeVideo:    {"mp4", "avi", "mov", "mkv", "webm"},
		model.TypeAudio:    {"mp3", "wav", "ogg", "flac"},
	} {
		for _, e := range exts {
			extensionTypes[e] = t
		}
	}
}

// Extension returns the lowercase extension of name without the dot
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// TypeFromExtension maps an extension to its semantic file type, anything
// unknown is "other"
func TypeFromExtension(ext string) string {
	if t, ok := extensionTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return t
	}

	return model.TypeOther
}
