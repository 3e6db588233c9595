// Package posting holds the posting-set model, the set algebra over it and the
// posting store contract with its backends and decorators.
package posting

import (
	"iter"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// DocumentID identifies a document in a posting set. Outside the document
// collection it is an opaque, ordered token.
type DocumentID uint64

func (id DocumentID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseDocumentID parses the decimal form produced by String.
func ParseDocumentID(s string) (DocumentID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return DocumentID(v), nil
}

// Set is an immutable set of DocumentIDs iterated in ascending order. The
// zero value and nil are both the empty set.
type Set struct {
	rb *roaring64.Bitmap
}

func NewSet(ids ...DocumentID) *Set {
	rb := roaring64.New()
	for _, id := range ids {
		rb.Add(uint64(id))
	}
	return &Set{rb: rb}
}

func (s *Set) Len() int {
	if s == nil || s.rb == nil {
		return 0
	}
	return int(s.rb.GetCardinality())
}

func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

func (s *Set) Contains(id DocumentID) bool {
	if s == nil || s.rb == nil {
		return false
	}
	return s.rb.Contains(uint64(id))
}

// All yields the members in ascending order.
func (s *Set) All() iter.Seq[DocumentID] {
	return func(yield func(DocumentID) bool) {
		if s == nil || s.rb == nil {
			return
		}
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(DocumentID(it.Next())) {
				return
			}
		}
	}
}

// IDs returns the members in ascending order.
func (s *Set) IDs() []DocumentID {
	ids := make([]DocumentID, 0, s.Len())
	for id := range s.All() {
		ids = append(ids, id)
	}
	return ids
}

func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for id := range s.All() {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

func (s *Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for id := range s.All() {
		if !first {
			b.WriteString(", ")
		}
		b.WriteString(id.String())
		first = false
	}
	b.WriteByte('}')
	return b.String()
}

// Intersect returns the members present in both sets. It walks the smaller
// operand and probes the larger one.
func Intersect(a, b *Set) *Set {
	small, large := a, b
	if b.Len() < a.Len() {
		small, large = b, a
	}
	out := roaring64.New()
	for id := range small.All() {
		if large.Contains(id) {
			out.Add(uint64(id))
		}
	}
	return &Set{rb: out}
}

// Union returns the members present in either set.
func Union(a, b *Set) *Set {
	out := roaring64.New()
	if a != nil && a.rb != nil {
		out.Or(a.rb)
	}
	if b != nil && b.rb != nil {
		out.Or(b.rb)
	}
	return &Set{rb: out}
}
