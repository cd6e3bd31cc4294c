// Package teixml reads and writes document trees as TEI P5 XML.
package teixml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/teigest/internal/doctree"
)

// Namespace is the TEI P5 namespace emitted on the root element.
const Namespace = "http://www.tei-c.org/ns/1.0"

// ErrMalformed wraps every decode failure.
var ErrMalformed = errors.New("malformed document")

// Options controls encoding.
type Options struct {
	Indent string // empty writes the document on one line
}

// Encode writes t, prefixed by an XML declaration.
func Encode(w io.Writer, t *doctree.Tree, opts Options) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	if opts.Indent != "" {
		enc.Indent("", opts.Indent)
	}
	if err := encodeNode(enc, t, t.Root, true); err != nil {
		return fmt.Errorf("encode %s: %w", t.Node(t.Root).Tag, err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Marshal is Encode into a byte slice.
func Marshal(t *doctree.Tree, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeNode(enc *xml.Encoder, t *doctree.Tree, id doctree.NodeID, root bool) error {
	n := t.Node(id)
	start := xml.StartElement{Name: xml.Name{Local: string(n.Tag)}}
	if root {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: Namespace})
	}
	for _, a := range n.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := enc.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := encodeNode(enc, t, c, false); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Decode parses a TEI document. Unknown elements, foreign namespaces,
// attributes outside an element's schema, text following a child element,
// and syntax errors all fail with ErrMalformed. Whitespace between child
// elements is indentation and is dropped; the text of a leaf element is kept
// exactly.
func Decode(r io.Reader) (*doctree.Tree, error) {
	dec := xml.NewDecoder(r)

	type frame struct {
		id       doctree.NodeID
		children bool
	}
	var (
		t     *doctree.Tree
		stack []frame
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			if tok.Name.Space != "" && tok.Name.Space != Namespace {
				return nil, fmt.Errorf("%w: element %s in namespace %q", ErrMalformed, tok.Name.Local, tok.Name.Space)
			}
			tag := doctree.Tag(tok.Name.Local)
			attrs := decodeAttrs(tok.Attr)

			var id doctree.NodeID
			switch {
			case t == nil:
				if tag != doctree.TagTEI {
					return nil, fmt.Errorf("%w: root element is %s, want %s", ErrMalformed, tag, doctree.TagTEI)
				}
				t, err = doctree.New(tag)
				id = t.Root
			case len(stack) == 0:
				return nil, fmt.Errorf("%w: content after root element", ErrMalformed)
			default:
				parent := &stack[len(stack)-1]
				if !parent.children {
					parent.children = true
					pn := t.Node(parent.id)
					pn.Text = trimIndent(pn.Text)
				}
				id, err = t.Add(parent.id, tag, "", attrs...)
			}
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line(dec), err)
			}
			stack = append(stack, frame{id: id})

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if top.children {
				if strings.TrimSpace(string(tok)) != "" {
					return nil, fmt.Errorf("%w: line %d: text after child element of %s",
						ErrMalformed, line(dec), t.Node(top.id).Tag)
				}
				continue
			}
			n := t.Node(top.id)
			n.Text += string(tok)
		}
	}

	if t == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return t, nil
}

// trimIndent drops whitespace-only text and the line break plus indentation
// an indenting encoder writes before the first child.
func trimIndent(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if i := strings.LastIndexByte(text, '\n'); i >= 0 && strings.TrimSpace(text[i:]) == "" {
		return text[:i]
	}
	return text
}

// Unmarshal is Decode over a byte slice.
func Unmarshal(data []byte) (*doctree.Tree, error) {
	return Decode(bytes.NewReader(data))
}

// decodeAttrs drops namespace declarations, which the encoder regenerates.
func decodeAttrs(in []xml.Attr) []doctree.Attr {
	var out []doctree.Attr
	for _, a := range in {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, doctree.Attr{Name: a.Name.Local, Value: a.Value})
	}
	return out
}

func line(dec *xml.Decoder) int {
	l, _ := dec.InputPos()
	return l
}

// WellFormed reports whether r holds a single well-formed XML element,
// whatever its vocabulary.
func WellFormed(r io.Reader) error {
	dec := xml.NewDecoder(r)
	roots := 0
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: %d root elements", ErrMalformed, roots)
	}
	return nil
}
