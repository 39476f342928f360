package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - mdview\nauthor: ann\n---\n# Heading\nBody text.\n")
	r := Parse(input)
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if r.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
	want := []Field{{"title", "Hello"}, {"tags", "go, mdview"}, {"author", "ann"}}
	if len(r.Fields) != len(want) {
		t.Fatalf("fields = %v, want %v", r.Fields, want)
	}
	for i := range want {
		if r.Fields[i] != want[i] {
			t.Errorf("field %d = %v, want %v", i, r.Fields[i], want[i])
		}
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r := Parse(input)
	if r.Frontmatter != nil || r.Fields != nil {
		t.Errorf("expected no frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r := Parse(input)
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if r.Body != string(input) {
		t.Errorf("body = %q, want whole input", r.Body)
	}
}

func TestParse_ThematicBreakIsNotFrontmatter(t *testing.T) {
	input := []byte("---- \nText\n")
	r := Parse(input)
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestDeriveTitle_SkipsCodeFences(t *testing.T) {
	body := "```sh\n# not a title\n```\n# Real title\n"
	if got := deriveTitle(nil, body); got != "Real title" {
		t.Errorf("title = %q", got)
	}
}
