package readers

import (
	"fmt"
)

// UniversalReader dispatches extraction to the first reader that
// recognizes the document. PDF and word-processor readers come before
// the text reader, since servers often mislabel binary formats as
// text.
type UniversalReader struct {
	readers []Reader
}

func NewUniversalReader() *UniversalReader {
	return &UniversalReader{
		readers: []Reader{
			&PdfReader{},
			&DocxReader{},
			&TxtReader{},
		},
	}
}

func (r *UniversalReader) CanRead(name, contentType string) bool {
	for _, reader := range r.readers {
		if reader.CanRead(name, contentType) {
			return true
		}
	}

	return false
}

// ExtractText converts document bytes to plain text, picking the
// reader by name and content type.
func (r *UniversalReader) ExtractText(name, contentType string, data []byte) (string, error) {
	for _, reader := range r.readers {
		if !reader.CanRead(name, contentType) {
			continue
		}

		text, err := reader.ReadText(data)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from %s: %w", name, err)
		}

		return text, nil
	}

	return "", fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, name, contentType)
}
