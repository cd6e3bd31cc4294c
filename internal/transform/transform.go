package transform

import (
	"fmt"

	"github.com/dgallion1/teigest/internal/doctree"
)

// headerOrder is the required sequence of teiHeader sections. Sections not
// listed keep their relative order after these.
var headerOrder = []doctree.Tag{
	doctree.TagFileDesc,
	doctree.TagProfileDesc,
	doctree.TagRevisionDesc,
}

// Apply returns a canonicalized copy of src with every sp rewritten to q.
// src itself is not modified.
func Apply(src *doctree.Tree) (*doctree.Tree, error) {
	t := src.Clone()
	if err := CanonicalizeHeader(t); err != nil {
		return nil, fmt.Errorf("canonicalize header: %w", err)
	}
	if _, err := SpeechToQuotation(t); err != nil {
		return nil, fmt.Errorf("rewrite speech: %w", err)
	}
	return t, nil
}

// CanonicalizeHeader folds every particDesc into profileDesc and puts the header
// sections in canonical order. Running it twice changes nothing.
func CanonicalizeHeader(t *doctree.Tree) error {
	header := t.Find(t.Root, doctree.TagHeader)
	if header == doctree.NoNode {
		return nil
	}

	var partics []doctree.NodeID
	for _, id := range t.Children(header) {
		if t.Node(id).Tag == doctree.TagParticDesc {
			partics = append(partics, id)
		}
	}
	if len(partics) > 0 {
		profile := t.Find(header, doctree.TagProfileDesc)
		if profile == doctree.NoNode {
			var err error
			if profile, err = t.Add(header, doctree.TagProfileDesc, ""); err != nil {
				return err
			}
		}
		merged := t.Children(profile)
		kept := t.Children(header)
		for _, partic := range partics {
			merged = append(merged, t.Children(partic)...)
			kept = without(kept, partic)
		}
		if err := t.SetChildren(profile, merged); err != nil {
			return err
		}
		if err := t.SetChildren(header, kept); err != nil {
			return err
		}
	}

	return t.SetChildren(header, CanonicalOrder(t, t.Children(header)))
}

// CanonicalOrder returns ids sorted into the canonical header sequence.
func CanonicalOrder(t *doctree.Tree, ids []doctree.NodeID) []doctree.NodeID {
	out := make([]doctree.NodeID, 0, len(ids))
	placed := make(map[doctree.NodeID]bool, len(ids))
	for _, tag := range headerOrder {
		for _, id := range ids {
			if t.Node(id).Tag == tag {
				out = append(out, id)
				placed[id] = true
			}
		}
	}
	for _, id := range ids {
		if !placed[id] {
			out = append(out, id)
		}
	}
	return out
}

// SpeechToQuotation replaces every sp below text/body with a q at the same
// position and returns how many were rewritten.
func SpeechToQuotation(t *doctree.Tree) (int, error) {
	body := t.FindPath(t.Root, doctree.TagText, doctree.TagBody)
	if body == doctree.NoNode {
		return 0, nil
	}

	type site struct{ sp, parent doctree.NodeID }
	var sites []site
	t.Walk(body, func(id, parent doctree.NodeID) bool {
		if t.Node(id).Tag == doctree.TagSp {
			sites = append(sites, site{id, parent})
		}
		return true
	})

	// Innermost first, so an outer q picks up already rewritten children.
	for i := len(sites) - 1; i >= 0; i-- {
		s := sites[i]
		q, err := quotation(t, s.sp)
		if err != nil {
			return 0, err
		}
		if err := t.SetChildren(s.parent, replace(t.Children(s.parent), s.sp, q)); err != nil {
			return 0, err
		}
	}
	return len(sites), nil
}

// quotation builds the q that stands in for sp. Text children are rebuilt
// bare; every other child is reused in place.
func quotation(t *doctree.Tree, sp doctree.NodeID) (doctree.NodeID, error) {
	var attrs []doctree.Attr
	if who, ok := t.Node(sp).Attr("who"); ok {
		attrs = append(attrs, doctree.Attr{Name: "who", Value: who})
	}
	q, err := t.NewNode(doctree.TagQ, "", attrs...)
	if err != nil {
		return doctree.NoNode, err
	}

	kids := t.Children(sp)
	out := make([]doctree.NodeID, 0, len(kids))
	for _, c := range kids {
		n := t.Node(c)
		if n.Tag != doctree.TagP {
			out = append(out, c)
			continue
		}
		p, err := t.NewNode(doctree.TagP, n.Text)
		if err != nil {
			return doctree.NoNode, err
		}
		out = append(out, p)
	}
	return q, t.SetChildren(q, out)
}

func without(ids []doctree.NodeID, drop doctree.NodeID) []doctree.NodeID {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func replace(ids []doctree.NodeID, old, repl doctree.NodeID) []doctree.NodeID {
	for i, id := range ids {
		if id == old {
			ids[i] = repl
		}
	}
	return ids
}
