package parser

import (
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TextParser handles plain text files.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, ErrEncoding
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	return &Source{Name: filepath.Base(filename), Text: text}, nil
}
