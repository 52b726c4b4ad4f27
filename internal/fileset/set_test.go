package fileset

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/pdfbinder/backend/internal/pdfops"
	"github.com/pdfbinder/backend/internal/testutil"
)

func newTestSet() (*Set, *testutil.StubDecoder, *testutil.MockBlobStore) {
	dec := testutil.NewStubDecoder()
	blobs := testutil.NewMockBlobStore()
	return New(dec, blobs), dec, blobs
}

func addOne(t *testing.T, s *Set, name string) string {
	t.Helper()
	entry, err := s.Add(name, "application/pdf", []byte("%PDF-1.4 "+name))
	if err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
	return entry.ID
}

func names(s *Set) []string {
	snap := s.Snapshot()
	out := make([]string, len(snap))
	for i, e := range snap {
		out[i] = e.Name
	}
	return out
}

func TestAddAppendsInOrder(t *testing.T) {
	s, _, blobs := newTestSet()

	idA := addOne(t, s, "a.pdf")
	idB := addOne(t, s, "b.pdf")
	idC := addOne(t, s, "c.pdf")

	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(snap))
	}
	for i, want := range []string{idA, idB, idC} {
		if snap[i].ID != want {
			t.Errorf("Entry %d: expected id %s, got %s", i, want, snap[i].ID)
		}
	}
	if blobs.Len() != 3 {
		t.Errorf("Expected 3 blobs, got %d", blobs.Len())
	}
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	s, _, _ := newTestSet()

	// Same name and same bytes must still get distinct ids
	id1 := addOne(t, s, "dup.pdf")
	id2 := addOne(t, s, "dup.pdf")
	if id1 == id2 {
		t.Fatalf("Duplicate adds shared id %s", id1)
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", s.Len())
	}
}

func TestAddRejectsNonPDF(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		wantOK      bool
	}{
		{"pdf mime", "doc.pdf", "application/pdf", true},
		{"pdf mime with params", "doc.pdf", "application/pdf; charset=binary", true},
		{"pdf extension no mime", "doc.pdf", "", true},
		{"pdf extension octet-stream", "doc.PDF", "application/octet-stream", true},
		{"png mime", "image.png", "image/png", false},
		{"text extension", "notes.txt", "", false},
		{"wrong mime pdf name", "doc.pdf", "image/png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestSet()
			_, err := s.Add(tt.fileName, tt.contentType, []byte("data"))
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Expected accept, got %v", err)
				}
				return
			}
			if !errors.Is(err, pdfops.ErrUnsupportedType) {
				t.Fatalf("Expected ErrUnsupportedType, got %v", err)
			}
			if s.Len() != 0 {
				t.Errorf("Rejected add changed the set, len=%d", s.Len())
			}
		})
	}
}

func TestAddDecodeFailureLeavesSetUnchanged(t *testing.T) {
	s, dec, blobs := newTestSet()
	addOne(t, s, "good.pdf")

	dec.Errs["bad.pdf"] = fmt.Errorf("%w: bad.pdf", pdfops.ErrCorruptFile)
	_, err := s.Add("bad.pdf", "application/pdf", []byte("garbage"))
	if !errors.Is(err, pdfops.ErrCorruptFile) {
		t.Fatalf("Expected ErrCorruptFile, got %v", err)
	}

	if got := names(s); len(got) != 1 || got[0] != "good.pdf" {
		t.Errorf("Set changed after failed add: %v", got)
	}
	if blobs.Len() != 1 {
		t.Errorf("Expected 1 blob after failed add, got %d", blobs.Len())
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, _, blobs := newTestSet()
	idA := addOne(t, s, "a.pdf")
	idB := addOne(t, s, "b.pdf")

	s.Remove(idA)
	s.Remove(idA) // second remove of the same id is a no-op
	s.Remove("no-such-id")

	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].ID != idB {
		t.Fatalf("Expected only %s left, got %v", idB, names(s))
	}
	if blobs.Len() != 1 {
		t.Errorf("Expected 1 blob, got %d", blobs.Len())
	}
}

func TestMoveToReorders(t *testing.T) {
	s, _, _ := newTestSet()
	addOne(t, s, "a.pdf")
	addOne(t, s, "b.pdf")
	idC := addOne(t, s, "c.pdf")

	s.MoveTo(idC, 0)

	want := []string{"c.pdf", "a.pdf", "b.pdf"}
	got := names(s)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("After MoveTo expected %v, got %v", want, got)
		}
	}
}

func TestMoveToClampsOutOfRange(t *testing.T) {
	s, _, _ := newTestSet()
	idA := addOne(t, s, "a.pdf")
	addOne(t, s, "b.pdf")
	addOne(t, s, "c.pdf")

	s.MoveTo(idA, 99)
	if got := names(s); got[2] != "a.pdf" {
		t.Errorf("Expected a.pdf clamped to end, got %v", got)
	}

	s.MoveTo(idA, -5)
	if got := names(s); got[0] != "a.pdf" {
		t.Errorf("Expected a.pdf clamped to front, got %v", got)
	}
}

func TestMoveToNoOps(t *testing.T) {
	s, _, _ := newTestSet()
	idA := addOne(t, s, "a.pdf")
	addOne(t, s, "b.pdf")
	before := names(s)

	s.MoveTo(idA, 0)          // self-move
	s.MoveTo("no-such-id", 1) // unknown id

	got := names(s)
	for i := range before {
		if got[i] != before[i] {
			t.Fatalf("No-op move changed order: before %v, after %v", before, got)
		}
	}
}

func TestMoveToPreservesMembership(t *testing.T) {
	s, _, _ := newTestSet()
	ids := []string{
		addOne(t, s, "a.pdf"),
		addOne(t, s, "b.pdf"),
		addOne(t, s, "c.pdf"),
		addOne(t, s, "d.pdf"),
	}

	s.MoveTo(ids[3], 1)
	s.MoveTo(ids[0], 2)

	snap := s.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(snap))
	}
	seen := make(map[string]bool)
	for _, e := range snap {
		if seen[e.ID] {
			t.Fatalf("Duplicate id %s after moves", e.ID)
		}
		seen[e.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("Lost entry %s after moves", id)
		}
	}
}

func TestClear(t *testing.T) {
	s, _, blobs := newTestSet()
	addOne(t, s, "a.pdf")
	addOne(t, s, "b.pdf")

	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Expected empty set, got %d entries", s.Len())
	}
	if blobs.Len() != 0 {
		t.Errorf("Expected no blobs after clear, got %d", blobs.Len())
	}
}

func TestPreview(t *testing.T) {
	dec := testutil.NewStubDecoder()
	dec.Result.Preview = []byte{0x89, 'P', 'N', 'G'}
	blobs := testutil.NewMockBlobStore()
	s := New(dec, blobs)

	entry, err := s.Add("a.pdf", "application/pdf", []byte("data"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !entry.HasPreview {
		t.Errorf("Expected HasPreview true")
	}

	p, ok := s.Preview(entry.ID)
	if !ok || len(p) != 4 {
		t.Errorf("Expected 4-byte preview, got %v ok=%v", p, ok)
	}
	if _, ok := s.Preview("no-such-id"); ok {
		t.Errorf("Expected no preview for unknown id")
	}
}

func TestConcurrentAdds(t *testing.T) {
	s, _, _ := newTestSet()

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("f%02d.pdf", i)
			if _, err := s.Add(name, "application/pdf", []byte(name)); err != nil {
				t.Errorf("Add(%s): %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	if len(snap) != n {
		t.Fatalf("Expected %d entries, got %d", n, len(snap))
	}
	seen := make(map[string]bool)
	for _, e := range snap {
		if seen[e.ID] {
			t.Fatalf("Duplicate id %s", e.ID)
		}
		seen[e.ID] = true
	}
}
