// Package frontmatter splits a note into its YAML header and Markdown body.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/starford/vaultsite/internal/apperr"
	"github.com/starford/vaultsite/internal/models"
)

const delim = "---"

// Split separates a leading YAML block (between --- lines) from the body.
//
// A note without a block, or whose block is never closed, yields a nil
// Frontmatter and the whole input as body. A block that is present but does
// not decode into title/date/tags is an error wrapping
// apperr.ErrInvalidFrontmatter.
func Split(data []byte) (*models.Frontmatter, string, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")

	header, ok := cutLine(trimmed)
	if !ok || string(bytes.TrimSpace(header)) != delim {
		return nil, string(data), nil
	}
	rest := trimmed[len(header):]
	rest = trimNewline(rest)

	block, body, ok := cutClosing(rest)
	if !ok {
		return nil, string(data), nil
	}

	if len(bytes.TrimSpace(block)) == 0 {
		return nil, string(body), nil
	}

	var fm models.Frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrInvalidFrontmatter, err)
	}
	return &fm, string(body), nil
}

// cutClosing finds the first line consisting of the delimiter and returns the
// text before it and the text after that line.
func cutClosing(rest []byte) (block, body []byte, ok bool) {
	offset := 0
	for offset < len(rest) {
		line, _ := cutLine(rest[offset:])
		if string(bytes.TrimSpace(line)) == delim {
			after := trimNewline(rest[offset+len(line):])
			return rest[:offset], after, true
		}
		next := offset + len(line)
		n := newlineLen(rest[next:])
		if n == 0 {
			break
		}
		offset = next + n
	}
	return nil, nil, false
}

// cutLine returns the first line of b without its line ending.
func cutLine(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return bytes.TrimSuffix(b[:i], []byte("\r")), true
	}
	return b, true
}

func trimNewline(b []byte) []byte {
	return b[newlineLen(b):]
}

func newlineLen(b []byte) int {
	switch {
	case bytes.HasPrefix(b, []byte("\r\n")):
		return 2
	case bytes.HasPrefix(b, []byte("\n")):
		return 1
	default:
		return 0
	}
}
