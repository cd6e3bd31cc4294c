package doctree

import "fmt"

// Tag identifies a recognized TEI element.
type Tag string

const (
	TagTEI             Tag = "TEI"
	TagHeader          Tag = "teiHeader"
	TagFileDesc        Tag = "fileDesc"
	TagTitleStmt       Tag = "titleStmt"
	TagTitle           Tag = "title"
	TagAuthor          Tag = "author"
	TagPublicationStmt Tag = "publicationStmt"
	TagSourceDesc      Tag = "sourceDesc"
	TagProfileDesc     Tag = "profileDesc"
	TagParticDesc      Tag = "particDesc"
	TagRevisionDesc    Tag = "revisionDesc"
	TagEncodingDesc    Tag = "encodingDesc"
	TagListPerson      Tag = "listPerson"
	TagPerson          Tag = "person"
	TagText            Tag = "text"
	TagBody            Tag = "body"
	TagP               Tag = "p"
	TagSp              Tag = "sp"
	TagSpeaker         Tag = "speaker"
	TagQ               Tag = "q"
	TagPtr             Tag = "ptr"
)

type attrSchema struct {
	allowed  map[string]bool
	required []string
}

var schemas = map[Tag]attrSchema{
	TagTEI:             {},
	TagHeader:          {},
	TagFileDesc:        {},
	TagTitleStmt:       {},
	TagTitle:           {},
	TagAuthor:          {},
	TagPublicationStmt: {},
	TagSourceDesc:      {},
	TagProfileDesc:     {},
	TagParticDesc:      {},
	TagRevisionDesc:    {},
	TagEncodingDesc:    {},
	TagListPerson:      {},
	TagPerson:          {allowed: map[string]bool{"id": true}, required: []string{"id"}},
	TagText:            {},
	TagBody:            {},
	TagP:               {allowed: map[string]bool{"n": true, "rend": true}},
	TagSp:              {allowed: map[string]bool{"who": true}},
	TagSpeaker:         {},
	TagQ:               {allowed: map[string]bool{"who": true}},
	TagPtr:             {allowed: map[string]bool{"type": true, "target": true}, required: []string{"type", "target"}},
}

func checkAttrs(tag Tag, attrs []Attr) error {
	s, ok := schemas[tag]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTag, string(tag))
	}
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if !s.allowed[a.Name] {
			return fmt.Errorf("%w: %s does not accept %q", ErrAttribute, tag, a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate %q on %s", ErrAttribute, a.Name, tag)
		}
		seen[a.Name] = true
	}
	for _, r := range s.required {
		if !seen[r] {
			return fmt.Errorf("%w: %s requires %q", ErrAttribute, tag, r)
		}
	}
	return nil
}
