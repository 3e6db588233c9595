package posting

import (
	"context"
)

// Entry is one row of a term's postings: a containing document and the term's
// frequency in it. Boolean evaluation only consumes DocID.
type Entry struct {
	DocID    DocumentID `json:"doc"`
	TermFreq int        `json:"tf"`
}

// Store resolves a term to its posting set. A term with no entries yields an
// empty set and a nil error; transport failures classify as
// errors.ErrRetrieval. Implementations must be safe for concurrent use.
type Store interface {
	Lookup(ctx context.Context, term string) (*Set, error)
	Close() error
}

// Writer stores pre-built postings for a term, replacing whatever the term
// held before.
type Writer interface {
	Put(ctx context.Context, term string, entries []Entry) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SetFromEntries collects the document ids of entries.
func SetFromEntries(entries []Entry) *Set {
	ids := make([]DocumentID, len(entries))
	for i, e := range entries {
		ids[i] = e.DocID
	}
	return NewSet(ids...)
}
