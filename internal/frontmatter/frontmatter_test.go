package frontmatter

import (
	"errors"
	"testing"

	"github.com/starford/vaultsite/internal/apperr"
)

func TestSplit_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ndate: 2024-03-01\ntags:\n  - go\n  - notes\n---\n# Hello\nBody text.\n")
	fm, body, err := Split(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm == nil {
		t.Fatal("expected frontmatter")
	}
	if fm.Title != "Hello" {
		t.Errorf("title = %q, want %q", fm.Title, "Hello")
	}
	if fm.Date != "2024-03-01" {
		t.Errorf("date = %q, want verbatim 2024-03-01", fm.Date)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "go" || fm.Tags[1] != "notes" {
		t.Errorf("tags = %v, want [go notes]", fm.Tags)
	}
	if body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	fm, body, err := Split(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm != nil {
		t.Errorf("expected nil frontmatter, got %+v", fm)
	}
	if body != string(input) {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_FlowTagsAndBlankLines(t *testing.T) {
	input := []byte("---\r\ntitle: Alpha\r\n\r\ntags: [intro, intro]\r\n---\r\n[[b]]\r\n")
	fm, body, err := Split(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm.Title != "Alpha" {
		t.Errorf("title = %q", fm.Title)
	}
	if len(fm.Tags) != 2 {
		t.Errorf("tags = %v, duplicates must be kept", fm.Tags)
	}
	if body != "[[b]]\r\n" {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_MissingKeysAreLegal(t *testing.T) {
	fm, _, err := Split([]byte("---\ndate: yesterday\n---\nbody"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm.Title != "" || fm.Tags != nil {
		t.Errorf("fm = %+v", fm)
	}
	if fm.Date != "yesterday" {
		t.Errorf("date = %q", fm.Date)
	}
}

func TestSplit_UnclosedBlockIsBody(t *testing.T) {
	input := []byte("---\ntitle: never closed\nstill body\n")
	fm, body, err := Split(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm != nil {
		t.Errorf("expected nil frontmatter")
	}
	if body != string(input) {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_EmptyBlock(t *testing.T) {
	fm, body, err := Split([]byte("---\n---\ntext"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm != nil {
		t.Errorf("expected nil frontmatter for empty block")
	}
	if body != "text" {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_ThematicBreakIsNotFrontmatter(t *testing.T) {
	input := []byte("Intro\n\n---\n\nafter rule\n")
	fm, body, err := Split(input)
	if err != nil || fm != nil {
		t.Fatalf("fm = %+v err = %v", fm, err)
	}
	if body != string(input) {
		t.Errorf("body = %q", body)
	}
}

func TestSplit_InvalidYAML(t *testing.T) {
	_, _, err := Split([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if !errors.Is(err, apperr.ErrInvalidFrontmatter) {
		t.Fatalf("err = %v, want ErrInvalidFrontmatter", err)
	}
}

func TestSplit_WrongShape(t *testing.T) {
	_, _, err := Split([]byte("---\ntags: just-a-string\n---\nBody\n"))
	if !errors.Is(err, apperr.ErrInvalidFrontmatter) {
		t.Fatalf("err = %v, want ErrInvalidFrontmatter", err)
	}
}
