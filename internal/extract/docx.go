package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DOCX extracts the raw text of a Word document body. Paragraphs and line
// breaks become newlines, tabs stay tabs and all formatting is dropped.
type DOCX struct{}

func (DOCX) Name() string { return "docx" }

func (DOCX) Supports(mimeType, ext string) bool {
	return mimeType == docxMIME || ext == "docx"
}

func (DOCX) Extract(ctx context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive, %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document body, %w", err)
		}
		defer rc.Close()

		return documentText(ctx, rc)
	}

	return "", errors.New("word/document.xml missing from archive")
}

func documentText(ctx context.Context, r io.Reader) (string, error) {
	var (
		sb     strings.Builder
		inText bool
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document body, %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
				if err := ctx.Err(); err != nil {
					return "", err
				}
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
