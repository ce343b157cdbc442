// Package wikilink rewrites Obsidian-style [[Note]] links and ![[asset]] embeds
// into plain HTML before the text reaches the Markdown renderer.
//
// The scanner is a single forward pass. It never fails: a span that is opened
// but never closed swallows the rest of the input and is emitted verbatim, and
// an opening marker inside an already open span is ignored.
package wikilink

import (
	"html"
	"strings"
)

// Kind identifies the type of a recognised span.
type Kind int

const (
	// Link is a [[Title]] reference to another note.
	Link Kind = iota + 1
	// Embed is a ![[name]] reference to an asset.
	Embed
)

// Span is one closed wikilink or embed, in input order.
type Span struct {
	Kind Kind
	Text string
}

// mode is the scanner state. The zero value is outside any span.
type mode int

const (
	outside mode = iota
	inLink
	inAsset
)

// Rewrite replaces every closed [[T]] with an anchor to Slug(T).html and every
// closed ![[T]] with an image whose source is T. All other text is unchanged.
func Rewrite(text string) string {
	out, _ := scan(text)
	return out
}

// Links returns the visible text of every closed [[T]] span, duplicates kept.
func Links(text string) []string {
	return collect(text, Link)
}

// Embeds returns the source of every closed ![[T]] span, duplicates kept.
func Embeds(text string) []string {
	return collect(text, Embed)
}

// Spans returns every closed span in input order.
func Spans(text string) []Span {
	_, spans := scan(text)
	return spans
}

// Slug lower-cases s and turns literal spaces into hyphens.
func Slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

// Href is the page a [[title]] link points at.
func Href(title string) string {
	return Slug(title) + ".html"
}

func collect(text string, kind Kind) []string {
	var out []string
	for _, sp := range Spans(text) {
		if sp.Kind == kind {
			out = append(out, sp.Text)
		}
	}
	return out
}

func scan(text string) (string, []Span) {
	var (
		out   strings.Builder
		label strings.Builder
		spans []Span
		state = outside
		last  int
	)
	out.Grow(len(text))

	for i, c := range text {
		switch {
		case c == '[' && byteAt(text, i+1) == '[':
			if state == outside {
				out.WriteString(text[last:i])
				last = i
				state = inLink
			}
		case c == '!' && byteAt(text, i+1) == '[' && byteAt(text, i+2) == '[':
			if state == outside {
				out.WriteString(text[last:i])
				last = i
				state = inAsset
			}
		case c == ']' && byteAt(text, i+1) == ']':
			if state == outside {
				continue
			}
			t := label.String()
			if state == inLink {
				out.WriteString(anchor(t))
				spans = append(spans, Span{Kind: Link, Text: t})
			} else {
				out.WriteString(image(t))
				spans = append(spans, Span{Kind: Embed, Text: t})
			}
			label.Reset()
			last = i + 2
			state = outside
		case state != outside:
			if c != '[' && c != '!' {
				label.WriteRune(c)
			}
		}
	}
	out.WriteString(text[last:])
	return out.String(), spans
}

// byteAt returns the byte at i or 0 past the end. The markers are ASCII, so a
// byte comparison never matches inside a multi-byte rune.
func byteAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}

// The span text goes into the markup verbatim; the renderer passes raw HTML
// through, so only the attribute quote needs guarding.
func anchor(t string) string {
	return `<a href="` + attr(Href(t)) + `">` + t + `</a>`
}

func image(t string) string {
	return `<img src="` + attr(t) + `">`
}

func attr(s string) string {
	if !strings.ContainsRune(s, '"') {
		return s
	}
	return strings.ReplaceAll(s, `"`, html.EscapeString(`"`))
}
