package builder

import (
	"fmt"
	"strings"

	"github.com/dgallion1/teigest/internal/doctree"
	"github.com/dgallion1/teigest/internal/persona"
	"github.com/dgallion1/teigest/internal/segment"
)

// Meta carries the header literals of a generated document.
type Meta struct {
	Title       string
	Author      string
	Publication string // publicationStmt text
	Source      string // sourceDesc text
}

// Stats summarizes one build.
type Stats struct {
	Dialogue  int
	Narration int
	Speakers  []string // speaker id of each sp, in document order
}

// Unattributed counts the speeches that fell back to the sentinel speaker.
func (s Stats) Unattributed() int {
	n := 0
	for _, id := range s.Speakers {
		if id == persona.SentinelID {
			n++
		}
	}
	return n
}

// Build assembles the TEI document for paras. Each dialogue paragraph is
// attributed to the first persona, in registry order, named in the
// paragraph right before it.
func Build(paras []segment.Paragraph, reg *persona.Registry, meta Meta) (*doctree.Tree, Stats, error) {
	var stats Stats

	t, err := doctree.New(doctree.TagTEI)
	if err != nil {
		return nil, stats, err
	}
	b := &treeBuilder{t: t}

	header := b.add(t.Root, doctree.TagHeader, "")
	fileDesc := b.add(header, doctree.TagFileDesc, "")
	titleStmt := b.add(fileDesc, doctree.TagTitleStmt, "")
	b.add(titleStmt, doctree.TagTitle, meta.Title)
	b.add(titleStmt, doctree.TagAuthor, meta.Author)
	b.add(fileDesc, doctree.TagPublicationStmt, meta.Publication)
	b.add(fileDesc, doctree.TagSourceDesc, meta.Source)

	profileDesc := b.add(header, doctree.TagProfileDesc, "")
	listPerson := b.add(profileDesc, doctree.TagListPerson, "")
	for _, p := range reg.All() {
		b.add(listPerson, doctree.TagPerson, p.DisplayName, doctree.Attr{Name: "id", Value: p.ID})
	}

	text := b.add(t.Root, doctree.TagText, "")
	body := b.add(text, doctree.TagBody, "")

	for i, para := range paras {
		if para.Kind != segment.Dialogue {
			b.add(body, doctree.TagP, para.Text)
			stats.Narration++
			continue
		}

		spk := persona.Sentinel()
		if i > 0 {
			spk = Attribute(paras[i-1].Text, reg)
		}
		sp := b.add(body, doctree.TagSp, "", doctree.Attr{Name: "who", Value: "#" + spk.ID})
		b.add(sp, doctree.TagSpeaker, spk.DisplayName)
		b.add(sp, doctree.TagP, segment.StripQuotes(para.Text))
		stats.Dialogue++
		stats.Speakers = append(stats.Speakers, spk.ID)
	}

	if b.err != nil {
		return nil, stats, fmt.Errorf("build document: %w", b.err)
	}
	return t, stats, nil
}

// Attribute returns the first named persona whose display name occurs in
// context, or the sentinel.
func Attribute(context string, reg *persona.Registry) persona.Persona {
	for _, p := range reg.Named() {
		if strings.Contains(context, p.DisplayName) {
			return p
		}
	}
	return persona.Sentinel()
}

// treeBuilder keeps the first construction error so Build reads linearly.
type treeBuilder struct {
	t   *doctree.Tree
	err error
}

func (b *treeBuilder) add(parent doctree.NodeID, tag doctree.Tag, text string, attrs ...doctree.Attr) doctree.NodeID {
	if b.err != nil {
		return doctree.NoNode
	}
	id, err := b.t.Add(parent, tag, text, attrs...)
	if err != nil {
		b.err = err
	}
	return id
}
