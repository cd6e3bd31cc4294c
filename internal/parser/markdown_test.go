package parser

import (
	"fmt"
	"strings"
	"testing"
)

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

func TestMarkdownParser_BlocksBecomeParagraphs(t *testing.T) {
	input := "# 봄날\n\n김작가\n\n민수가 **천천히** 말했다.\n\n\"안녕, 지영아.\"\n\n```\ncode\n```\n"
	p := &MarkdownParser{}
	src, err := p.Parse(strings.NewReader(input), "story.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "봄날\n\n김작가\n\n민수가 천천히 말했다.\n\n\"안녕, 지영아.\""
	if src.Text != want {
		t.Errorf("expected %q, got %q", want, src.Text)
	}
	if src.Name != "story.md" {
		t.Errorf("expected name %q, got %q", "story.md", src.Name)
	}
}

func TestMarkdownParser_ListItems(t *testing.T) {
	input := "- 하나\n- 둘\n"
	p := &MarkdownParser{}
	src, err := p.Parse(strings.NewReader(input), "list.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Text != "하나\n\n둘" {
		t.Errorf("expected %q, got %q", "하나\n\n둘", src.Text)
	}
}
