package addressee

import (
	"errors"
	"testing"

	"github.com/dgallion1/teigest/internal/builder"
	"github.com/dgallion1/teigest/internal/doctree"
	"github.com/dgallion1/teigest/internal/persona"
	"github.com/dgallion1/teigest/internal/segment"
)

func buildTree(t *testing.T, input string) (*doctree.Tree, *persona.Registry) {
	t.Helper()
	paras := segment.Segment(input)
	reg := persona.Extract(paras, persona.Options{HarvestVocatives: true})
	tree, _, err := builder.Build(paras, reg, builder.Meta{Title: "t", Author: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tree, reg
}

// targets returns the ptr target of each sp in document order, "" when absent.
func targets(t *testing.T, tree *doctree.Tree) []string {
	t.Helper()
	var out []string
	for _, sp := range tree.All(tree.Root, doctree.TagSp) {
		kids := tree.Children(sp)
		first := tree.Node(kids[0])
		if first.Tag != doctree.TagPtr {
			out = append(out, "")
			continue
		}
		typ, _ := first.Attr("type")
		if typ != "addressee" {
			t.Errorf("expected ptr type addressee, got %q", typ)
		}
		target, _ := first.Attr("target")
		out = append(out, target)
	}
	return out
}

func TestResolve_DirectAddress(t *testing.T) {
	tree, reg := buildTree(t, "민수\n\n\"안녕, 지영아.\"")

	res, err := Resolve(tree, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Tagged != 1 || res.Direct != 1 || res.Untagged != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	got := targets(t, tree)
	if len(got) != 1 || got[0] != "#지영" {
		t.Errorf("expected [#지영], got %v", got)
	}
}

func TestResolve_SentinelPairStaysUntagged(t *testing.T) {
	tree, reg := buildTree(t, "\"어디 가?\"\n\n\"집에.\"")

	res, err := Resolve(tree, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Tagged != 0 || res.Untagged != 2 {
		t.Errorf("expected 0 tagged / 2 untagged, got %+v", res)
	}
	for i, tg := range targets(t, tree) {
		if tg != "" {
			t.Errorf("sp[%d]: expected no ptr, got %q", i, tg)
		}
	}
}

func TestResolve_FallbackToPreviousSpeaker(t *testing.T) {
	input := "민수\n\n\"왔어?\"\n\n지영\n\n\"응, 방금.\""
	tree, reg := buildTree(t, input)

	res, err := Resolve(tree, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := targets(t, tree)
	// The first turn has nobody before it; the second answers 민수.
	if len(got) != 2 || got[0] != "" || got[1] != "#민수" {
		t.Errorf("expected [\"\" #민수], got %v", got)
	}
	if res.Fallback != 1 || res.Untagged != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestResolve_PreviousSpeakerAdvancesWhenUntagged(t *testing.T) {
	input := "민수\n\n\"하나.\"\n\n민수\n\n\"둘.\"\n\n지영\n\n\"셋.\""
	tree, reg := buildTree(t, input)
	if _, err := Resolve(tree, reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := targets(t, tree)
	want := []string{"", "", "#민수"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sp[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestResolve_PtrNeverTargetsSpeaker(t *testing.T) {
	input := "민수\n\n\"민수야, 정신 차려.\"\n\n지영\n\n\"지영아, 민수야.\"\n\n민수\n\n\"그래.\""
	tree, reg := buildTree(t, input)
	if _, err := Resolve(tree, reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sp := range tree.All(tree.Root, doctree.TagSp) {
		speaker := SpeakerID(tree.Node(sp))
		first := tree.Node(tree.Children(sp)[0])
		if first.Tag != doctree.TagPtr {
			continue
		}
		target, _ := first.Attr("target")
		if target == "#"+speaker {
			t.Errorf("speaker %q addresses itself", speaker)
		}
	}
}

func TestResolve_NoBody(t *testing.T) {
	tree, _ := doctree.New(doctree.TagTEI)
	if _, err := Resolve(tree, persona.NewRegistry()); !errors.Is(err, ErrNoBody) {
		t.Errorf("expected ErrNoBody, got %v", err)
	}
}

func TestFind_RegistryOrderAndSuffixes(t *testing.T) {
	reg := persona.NewRegistry()
	reg.Add(persona.Persona{ID: "영희", DisplayName: "영희"})
	reg.Add(persona.Persona{ID: "철수", DisplayName: "철수"})
	reg.Add(persona.Sentinel())

	cases := []struct {
		text, speaker, previous string
		want                    string
		method                  Method
	}{
		{"철수야, 영희씨 왔어", "x", "", "영희", Direct},
		{"철수씨", "x", "", "철수", Direct},
		{"영희는 어디 갔니", "철수", "영희", "영희", Fallback},
		{"그래", "철수", "철수", "", Unresolved},
		{"그래", "철수", "", "", Unresolved},
		{"unknown아", "철수", "", "", Unresolved},
	}
	for _, tc := range cases {
		got, m := Find(tc.text, tc.speaker, tc.previous, reg)
		if got != tc.want || m != tc.method {
			t.Errorf("Find(%q): expected (%q, %d), got (%q, %d)", tc.text, tc.want, tc.method, got, m)
		}
	}
}
