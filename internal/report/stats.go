package report

import (
	"fmt"

	"github.com/dgallion1/teigest/internal/doctree"
)

// Stats is a point-in-time count over a finished document.
type Stats struct {
	Paragraphs int `json:"paragraphs"`
	Dialogue   int `json:"dialogue"`
	Narration  int `json:"narration"`
	Personas   int `json:"personas"`
	Tagged     int `json:"tagged_addressees"`
	Untagged   int `json:"untagged_addressees"`
}

// Collect counts the body paragraphs and quotations of a transformed
// document. Every q contributes its p children to the paragraph total.
func Collect(t *doctree.Tree) Stats {
	var s Stats

	body := t.FindPath(t.Root, doctree.TagText, doctree.TagBody)
	for _, id := range t.Children(body) {
		switch t.Node(id).Tag {
		case doctree.TagP:
			s.Paragraphs++
		case doctree.TagQ:
			s.Dialogue++
			for _, c := range t.Children(id) {
				n := t.Node(c)
				switch n.Tag {
				case doctree.TagP:
					s.Paragraphs++
				case doctree.TagPtr:
					if typ, _ := n.Attr("type"); typ == "addressee" {
						s.Tagged++
					}
				}
			}
		}
	}
	s.Narration = s.Paragraphs - s.Dialogue
	s.Untagged = s.Dialogue - s.Tagged

	list := t.FindPath(t.Root, doctree.TagHeader, doctree.TagProfileDesc, doctree.TagListPerson)
	s.Personas = len(t.All(list, doctree.TagPerson))
	return s
}

// Row is one line of the quality report.
type Row struct {
	Item  string
	Count int
	Ratio string
}

// Rows lays the stats out with percentages of the paragraph or dialogue
// totals.
func (s Stats) Rows() []Row {
	return []Row{
		{"전체_문단", s.Paragraphs, "100%"},
		{"대화_문단", s.Dialogue, percent(s.Dialogue, s.Paragraphs)},
		{"서술_문단", s.Narration, percent(s.Narration, s.Paragraphs)},
		{"등장인물_수", s.Personas, "-"},
		{"태깅된_청자", s.Tagged, percent(s.Tagged, s.Dialogue)},
		{"미태깅_청자", s.Untagged, percent(s.Untagged, s.Dialogue)},
	}
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}
