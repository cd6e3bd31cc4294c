package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupported = errors.New("unsupported file extension")
	ErrEncoding    = errors.New("input is not valid UTF-8")
)

// Source is the plain transcript recovered from an input file. Paragraphs
// in Text are separated by blank lines.
type Source struct {
	Name string // base file name
	Text string
}

// Parser converts raw document bytes into a plain-text Source.
type Parser interface {
	Parse(r io.Reader, filename string) (*Source, error)
}

// Options tunes the parsers that need it.
type Options struct {
	PDFFallbackPdftotext bool
}

// readers maps a lower-case file extension to its parser. Files without an
// extension are read as plain text.
var readers = map[string]func(Options) Parser{
	"":          func(Options) Parser { return &TextParser{} },
	".txt":      func(Options) Parser { return &TextParser{} },
	".md":       func(Options) Parser { return &MarkdownParser{} },
	".markdown": func(Options) Parser { return &MarkdownParser{} },
	".html":     func(Options) Parser { return &HTMLParser{} },
	".htm":      func(Options) Parser { return &HTMLParser{} },
	".pdf":      func(o Options) Parser { return &PDFParser{FallbackPdftotext: o.PDFFallbackPdftotext} },
	".docx":     func(Options) Parser { return &DOCXParser{} },
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	newParser, ok := readers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	return newParser(opts), nil
}

// joinBlocks renders extracted blocks as blank-line separated paragraphs.
func joinBlocks(blocks []string) string {
	var kept []string
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n")
}
