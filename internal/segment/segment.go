package segment

import (
	"iter"
	"regexp"
	"slices"
	"strings"
)

// Kind classifies a paragraph.
type Kind int

const (
	Narration Kind = iota
	Dialogue
)

func (k Kind) String() string {
	if k == Dialogue {
		return "dialogue"
	}
	return "narration"
}

// Paragraph is one blank-line delimited chunk of the source text.
type Paragraph struct {
	Index int
	Text  string
	Kind  Kind
}

// Defaults supplies the labels used when the text has no title or author line.
type Defaults struct {
	Title  string
	Author string
}

var blankLine = regexp.MustCompile(`\n\s*\n`)

// Split yields the paragraphs of text in source order. The sequence can be
// ranged over more than once.
func Split(text string) iter.Seq[Paragraph] {
	return func(yield func(Paragraph) bool) {
		index := 0
		for _, chunk := range blankLine.Split(text, -1) {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			if !yield(Paragraph{Index: index, Text: chunk, Kind: Classify(chunk)}) {
				return
			}
			index++
		}
	}
}

// Segment realizes Split once.
func Segment(text string) []Paragraph {
	return slices.Collect(Split(text))
}

// Classify returns Dialogue when text opens with a straight quote.
func Classify(text string) Kind {
	if strings.HasPrefix(text, `"`) || strings.HasPrefix(text, "'") {
		return Dialogue
	}
	return Narration
}

// StripQuotes removes surrounding double quotes, then single quotes.
func StripQuotes(text string) string {
	return strings.Trim(strings.Trim(text, `"`), "'")
}

// GuessTitleAuthor takes the first non-blank line as the title and the
// second as the author.
func GuessTitleAuthor(text string, d Defaults) (title, author string) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
			if len(lines) == 2 {
				break
			}
		}
	}
	title, author = d.Title, d.Author
	if len(lines) > 0 {
		title = lines[0]
	}
	if len(lines) > 1 {
		author = lines[1]
	}
	return title, author
}

// Counts tallies paragraphs by kind.
func Counts(paras []Paragraph) (dialogue, narration int) {
	for _, p := range paras {
		if p.Kind == Dialogue {
			dialogue++
		} else {
			narration++
		}
	}
	return dialogue, narration
}
