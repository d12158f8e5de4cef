package listreader

import (
	"io"

	"github.com/RoaringBitmap/roaring/v2"
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

// DocIDSet is a compact, queryable view of the docIDs a term occurs in. It
// wraps the roaring bitmap implementation so external collaborators (a
// ranker combining several terms' postings) can intersect or union
// candidate sets without materializing a full posting list.
type DocIDSet struct {
	rb *roaring.Bitmap
}

// NewDocIDSet creates an empty DocIDSet.
func NewDocIDSet() *DocIDSet {
	return &DocIDSet{rb: roaring.New()}
}

// CollectDocIDs drains a term's entire posting list into a DocIDSet by
// repeated NextGEQ calls starting from 0.
func CollectDocIDs(h *ListHandle) (*DocIDSet, error) {
	set := NewDocIDSet()
	var next uint32
	for {
		p, err := h.NextGEQ(next)
		if err == pipeerr.EndOfList {
			return set, nil
		}
		if err != nil {
			return nil, err
		}
		set.Add(p.DocID)
		next = p.DocID + 1
	}
}

// Add inserts docID into the set.
func (s *DocIDSet) Add(docID uint32) {
	s.rb.Add(docID)
}

// Contains reports whether docID is a member of the set.
func (s *DocIDSet) Contains(docID uint32) bool {
	return s.rb.Contains(docID)
}

// Cardinality returns the number of docIDs in the set.
func (s *DocIDSet) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// And intersects s with other in place.
func (s *DocIDSet) And(other *DocIDSet) {
	s.rb.And(other.rb)
}

// Or unions s with other in place.
func (s *DocIDSet) Or(other *DocIDSet) {
	s.rb.Or(other.rb)
}

// AndNot removes from s every docID also present in other.
func (s *DocIDSet) AndNot(other *DocIDSet) {
	s.rb.AndNot(other.rb)
}

// ForEach calls fn for every docID in the set in ascending order, stopping
// early if fn returns false.
func (s *DocIDSet) ForEach(fn func(docID uint32) bool) {
	it := s.rb.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			break
		}
	}
}

// WriteTo serializes the set to w in the roaring bitmap wire format.
func (s *DocIDSet) WriteTo(w io.Writer) (int64, error) {
	return s.rb.WriteTo(w)
}

// ReadFrom deserializes a roaring bitmap from r into s.
func (s *DocIDSet) ReadFrom(r io.Reader) (int64, error) {
	return s.rb.ReadFrom(r)
}
