package readers

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
)

var docxMimeTypes = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":  "application/vnd.oasis.opendocument.text",
}

// DocxReader handles word-processor formats through docconv.
type DocxReader struct{}

func (r *DocxReader) CanRead(name, contentType string) bool {
	for _, mime := range docxMimeTypes {
		if strings.Contains(contentType, mime) {
			return true
		}
	}
	_, ok := docxMimeTypes[strings.ToLower(filepath.Ext(name))]

	return ok
}

func (r *DocxReader) ReadText(data []byte) (string, error) {
	mime := detectDocxMime(data)
	body, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if mime == docxMimeTypes[".odt"] {
		body, _, err = docconv.ConvertODT(bytes.NewReader(data))
	}
	if err != nil {
		return "", fmt.Errorf("failed to convert document: %w", err)
	}

	return body, nil
}

// detectDocxMime sniffs the zip container for ODT's mimetype entry.
// Both formats are zip archives, so the extension alone is not
// trusted.
func detectDocxMime(data []byte) string {
	if bytes.Contains(data[:min(len(data), 256)], []byte("application/vnd.oasis.opendocument.text")) {
		return docxMimeTypes[".odt"]
	}

	return docxMimeTypes[".docx"]
}
