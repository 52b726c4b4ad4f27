package models

import "time"

// FileEntry represents one PDF added to a workspace. The ID is assigned at
// insertion and never changes; it is the only stable handle across reordering.
type FileEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	PageCount  int       `json:"pageCount"`
	Excerpt    string    `json:"excerpt,omitempty"`
	HasPreview bool      `json:"hasPreview"`
	AddedAt    time.Time `json:"addedAt"`
}

// DecodeResult is what the decode service produces for one PDF.
// Preview and Excerpt are best-effort; either may be empty.
type DecodeResult struct {
	PageCount int    `json:"pageCount" msgpack:"pageCount"`
	Excerpt   string `json:"excerpt" msgpack:"excerpt"`
	Preview   []byte `json:"-" msgpack:"preview"`
}
