package readers

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

type TxtReader struct{}

var txtExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
}

func (r *TxtReader) CanRead(name, contentType string) bool {
	return strings.HasPrefix(contentType, "text/") ||
		txtExtensions[strings.ToLower(filepath.Ext(name))]
}

func (r *TxtReader) ReadText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text document is not valid utf-8")
	}

	return string(data), nil
}
