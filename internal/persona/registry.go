package persona

import (
	"sort"

	"github.com/dgallion1/teigest/internal/doctree"
)

// Counter accumulates name mentions, remembering first-seen order.
type Counter struct {
	counts map[string]int
	order  []string
}

// Add records one mention of name.
func (c *Counter) Add(name string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

// Count returns how often name was recorded.
func (c *Counter) Count(name string) int {
	return c.counts[name]
}

// Ranked returns names by descending count, ties in first-seen order.
func (c *Counter) Ranked() []string {
	out := append([]string(nil), c.order...)
	sort.SliceStable(out, func(i, j int) bool {
		return c.counts[out[i]] > c.counts[out[j]]
	})
	return out
}

// Registry is an ordered id -> Persona mapping.
type Registry struct {
	byID  map[string]Persona
	order []string
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Persona)}
}

// Add appends p unless its id is already registered. It reports whether p
// was added.
func (r *Registry) Add(p Persona) bool {
	if _, ok := r.byID[p.ID]; ok {
		return false
	}
	r.byID[p.ID] = p
	r.order = append(r.order, p.ID)
	return true
}

func (r *Registry) ensureSentinel() {
	r.Add(Sentinel())
}

// Len returns the number of registered personas, sentinel included.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns every persona in registry order.
func (r *Registry) All() []Persona {
	out := make([]Persona, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Named returns every persona except the sentinel, in registry order.
func (r *Registry) Named() []Persona {
	out := make([]Persona, 0, len(r.order))
	for _, id := range r.order {
		if p := r.byID[id]; !p.IsSentinel() && p.DisplayName != "" {
			out = append(out, p)
		}
	}
	return out
}

// FromTree rebuilds the registry serialized under
// teiHeader/profileDesc/listPerson. The sentinel is added if the document
// does not list it.
func FromTree(t *doctree.Tree) *Registry {
	reg := NewRegistry()
	list := t.FindPath(t.Root, doctree.TagHeader, doctree.TagProfileDesc, doctree.TagListPerson)
	for _, id := range t.Children(list) {
		n := t.Node(id)
		if n.Tag != doctree.TagPerson {
			continue
		}
		pid, _ := n.Attr("id")
		if pid == SentinelID {
			reg.ensureSentinel()
			continue
		}
		reg.Add(Persona{ID: pid, DisplayName: n.Text})
	}
	reg.ensureSentinel()
	return reg
}
