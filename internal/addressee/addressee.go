package addressee

import (
	"errors"
	"strings"

	"github.com/dgallion1/teigest/internal/doctree"
	"github.com/dgallion1/teigest/internal/persona"
)

// ErrNoBody is returned for documents without a text/body section.
var ErrNoBody = errors.New("document has no body")

// VocativeSuffixes mark direct address when they follow a name.
var VocativeSuffixes = []string{"야", "아", "씨"}

// Method records how an addressee was found.
type Method int

const (
	Unresolved Method = iota
	Direct
	Fallback
)

// Result counts the outcome of one Resolve call.
type Result struct {
	Tagged   int
	Untagged int
	Direct   int
	Fallback int
}

// Resolve inserts an addressee ptr as the first child of every sp in t that
// names its listener, or that follows a turn by a different speaker.
func Resolve(t *doctree.Tree, reg *persona.Registry) (Result, error) {
	var res Result

	body := t.FindPath(t.Root, doctree.TagText, doctree.TagBody)
	if body == doctree.NoNode {
		return res, ErrNoBody
	}

	previous := ""
	for _, sp := range t.All(body, doctree.TagSp) {
		speaker := SpeakerID(t.Node(sp))
		p := t.Find(sp, doctree.TagP)
		if p != doctree.NoNode {
			target, method := Find(t.Node(p).Text, speaker, previous, reg)
			if method != Unresolved {
				ptr, err := t.NewNode(doctree.TagPtr, "",
					doctree.Attr{Name: "type", Value: "addressee"},
					doctree.Attr{Name: "target", Value: "#" + target},
				)
				if err != nil {
					return res, err
				}
				if err := t.InsertChild(sp, 0, ptr); err != nil {
					return res, err
				}
				res.Tagged++
				if method == Direct {
					res.Direct++
				} else {
					res.Fallback++
				}
			} else {
				res.Untagged++
			}
		}
		previous = speaker
	}
	return res, nil
}

// Find picks the addressee of text spoken by speaker. A persona named with a
// vocative suffix wins; otherwise the previous speaker is used when it is
// someone else.
func Find(text, speaker, previous string, reg *persona.Registry) (string, Method) {
	for _, p := range reg.Named() {
		if p.ID == speaker {
			continue
		}
		for _, suf := range VocativeSuffixes {
			if strings.Contains(text, p.DisplayName+suf) {
				return p.ID, Direct
			}
		}
	}
	if previous != "" && previous != speaker {
		return previous, Fallback
	}
	return "", Unresolved
}

// SpeakerID returns the persona id referenced by an element's who attribute.
func SpeakerID(n *doctree.Node) string {
	who, ok := n.Attr("who")
	if !ok || who == "" {
		return persona.SentinelID
	}
	return strings.TrimPrefix(who, "#")
}
