package listreader

import "testing"

func TestDocIDSetBasics(t *testing.T) {
	s := NewDocIDSet()
	s.Add(3)
	s.Add(7)
	s.Add(7)
	if s.Cardinality() != 2 {
		t.Fatalf("Cardinality = %d, want 2", s.Cardinality())
	}
	if !s.Contains(3) || s.Contains(4) {
		t.Fatalf("Contains wrong for 3/4")
	}
}

func TestDocIDSetAndOr(t *testing.T) {
	a := NewDocIDSet()
	a.Add(1)
	a.Add(2)
	a.Add(3)
	b := NewDocIDSet()
	b.Add(2)
	b.Add(3)
	b.Add(4)

	and := NewDocIDSet()
	and.Or(a)
	and.And(b)
	if and.Cardinality() != 2 || !and.Contains(2) || !and.Contains(3) {
		t.Fatalf("intersection wrong")
	}

	union := NewDocIDSet()
	union.Or(a)
	union.Or(b)
	if union.Cardinality() != 4 {
		t.Fatalf("union cardinality = %d, want 4", union.Cardinality())
	}
}

func TestCollectDocIDs(t *testing.T) {
	idx := buildIndex(t, map[string]string{"intermediate_0.txt": "cat 1:1 5:2 9:1\n"})
	h, err := idx.OpenList("cat")
	if err != nil {
		t.Fatalf("OpenList: %v", err)
	}
	set, err := CollectDocIDs(h)
	if err != nil {
		t.Fatalf("CollectDocIDs: %v", err)
	}
	if set.Cardinality() != 3 {
		t.Fatalf("Cardinality = %d, want 3", set.Cardinality())
	}
	for _, d := range []uint32{1, 5, 9} {
		if !set.Contains(d) {
			t.Fatalf("missing docID %d", d)
		}
	}
	if set.Contains(2) {
		t.Fatalf("unexpected docID 2 in set")
	}
}
