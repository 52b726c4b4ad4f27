// Package fileset holds the ordered collection of PDFs a user has assembled
// for merging. Entry order defines both display order and merge order.
package fileset

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdfbinder/backend/internal/models"
	"github.com/pdfbinder/backend/internal/pdfops"
)

// Decoder is the external decode service invoked on every add.
type Decoder interface {
	Decode(name string, data []byte) (*models.DecodeResult, error)
}

// BlobStore defines the interface needed from the storage layer.
type BlobStore interface {
	Put(id string, data []byte) error
	Delete(id string) error
}

// Set is an insertion-ordered collection of file entries with stable ids.
// All ids in a Set are unique; slice order is exactly the order a merge will
// use. Raw bytes live in the blob store under the entry id.
type Set struct {
	mu       sync.RWMutex
	entries  []models.FileEntry
	previews map[string][]byte
	dec      Decoder
	blobs    BlobStore
}

// New creates an empty Set backed by the given decode service and blob store.
func New(dec Decoder, blobs BlobStore) *Set {
	return &Set{
		previews: make(map[string][]byte),
		dec:      dec,
		blobs:    blobs,
	}
}

// Add validates and decodes one file and appends it to the end of the set.
// Non-PDF input is rejected with pdfops.ErrUnsupportedType before decoding;
// a decode failure surfaces pdfops.ErrCorruptFile. Either way the set is left
// exactly as it was.
//
// Decoding happens outside the set lock, so adds issued concurrently append
// in decode-completion order, not call order. That is the only source of
// nondeterministic ordering in the system; a user can always fix the order
// afterwards with MoveTo.
func (s *Set) Add(name, contentType string, data []byte) (*models.FileEntry, error) {
	if !isPDF(name, contentType) {
		return nil, fmt.Errorf("%w: %s", pdfops.ErrUnsupportedType, name)
	}

	res, err := s.dec.Decode(name, data)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	if err := s.blobs.Put(id, data); err != nil {
		return nil, fmt.Errorf("storing %s: %w", name, err)
	}

	entry := models.FileEntry{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		PageCount:  res.PageCount,
		Excerpt:    res.Excerpt,
		HasPreview: len(res.Preview) > 0,
		AddedAt:    time.Now(),
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if len(res.Preview) > 0 {
		s.previews[id] = res.Preview
	}
	s.mu.Unlock()

	return &entry, nil
}

// Remove deletes the entry with the given id and its blob. Removing an
// unknown id is a no-op; relative order of the remaining entries is kept.
func (s *Set) Remove(id string) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	delete(s.previews, id)
	s.mu.Unlock()

	s.blobs.Delete(id)
}

// MoveTo relocates the entry with the given id to target, shifting the
// others. Out-of-range targets are clamped to the valid range; self-moves and
// unknown ids are no-ops.
func (s *Set) MoveTo(id string, target int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return
	}

	if target < 0 {
		target = 0
	}
	if target > len(s.entries)-1 {
		target = len(s.entries) - 1
	}
	if target == idx {
		return
	}

	entry := s.entries[idx]
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	s.entries = append(s.entries[:target], append([]models.FileEntry{entry}, s.entries[target:]...)...)
}

// Clear empties the set and deletes all blobs.
func (s *Set) Clear() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		ids = append(ids, e.ID)
	}
	s.entries = nil
	s.previews = make(map[string][]byte)
	s.mu.Unlock()

	for _, id := range ids {
		s.blobs.Delete(id)
	}
}

// Snapshot returns a copy of the entries in exact current order. Both the
// renderer and the merge orchestrator read order through this.
func (s *Set) Snapshot() []models.FileEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FileEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Preview returns the thumbnail PNG for an entry, if one was rendered.
func (s *Set) Preview(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.previews[id]
	return p, ok
}

// Len returns the number of entries.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// indexOf must be called with the lock held.
func (s *Set) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// isPDF checks the content-type hint before any decoding happens. An explicit
// application/pdf MIME type or a .pdf extension passes; everything else is
// rejected up front.
func isPDF(name, contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if ct == "application/pdf" {
		return true
	}
	if ct != "" && ct != "application/octet-stream" {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
