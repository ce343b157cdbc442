// Package tagindex accumulates notes under the frontmatter tags they declare.
package tagindex

import (
	"sort"

	"github.com/starford/vaultsite/internal/models"
)

// Index maps a tag to the notes declaring it, in recording order.
// It is not safe for concurrent use; the build loop owns it.
type Index struct {
	notes map[string][]models.Note
	order []string
}

// New returns an empty index.
func New() *Index {
	return &Index{notes: make(map[string][]models.Note)}
}

// Record appends note to tag's list. A note recorded twice under the same tag
// appears twice.
func (x *Index) Record(tag string, note models.Note) {
	if _, ok := x.notes[tag]; !ok {
		x.order = append(x.order, tag)
	}
	x.notes[tag] = append(x.notes[tag], note)
}

// RecordAll records note under each tag in order.
func (x *Index) RecordAll(tags []string, note models.Note) {
	for _, t := range tags {
		x.Record(t, note)
	}
}

// Notes returns the notes recorded for tag, or nil.
func (x *Index) Notes(tag string) []models.Note {
	return x.notes[tag]
}

// Tags returns every tag in first-seen order.
func (x *Index) Tags() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// Sorted returns every tag in lexical order.
func (x *Index) Sorted() []string {
	out := x.Tags()
	sort.Strings(out)
	return out
}

// Len returns the number of distinct tags.
func (x *Index) Len() int {
	return len(x.order)
}
