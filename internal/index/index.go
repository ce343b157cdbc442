package index

// SiteIndex defines the read and replace operations on the page index.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type SiteIndex interface {
	Replace(build BuildRow, pages []PageRow) error
	GetNote(path string) (*NoteRow, error)
	ListNotes(tag string, limit, offset int) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(target string) ([]string, error)
	Tags() ([]TagCount, error)
	LastBuild() (*BuildRow, error)
	Close() error
}

// Verify *DB satisfies SiteIndex at compile time.
var _ SiteIndex = (*DB)(nil)
