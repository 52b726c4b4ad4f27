// Package testutil provides shared fakes for package tests.
package testutil

import (
	"fmt"
	"sync"

	"github.com/pdfbinder/backend/internal/models"
)

// MockBlobStore is an in-memory blob store with optional failure injection.
type MockBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	// FailPut and FailRead, when set, make the corresponding call fail
	// for the given id.
	FailPut  string
	FailRead string
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{blobs: make(map[string][]byte)}
}

func (m *MockBlobStore) Put(id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut != "" && m.FailPut == id {
		return fmt.Errorf("injected put failure: %s", id)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[id] = cp
	return nil
}

func (m *MockBlobStore) Read(id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != "" && m.FailRead == id {
		return nil, fmt.Errorf("injected read failure: %s", id)
	}
	data, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("blob not found: %s", id)
	}
	return data, nil
}

func (m *MockBlobStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, id)
	return nil
}

// Len reports how many blobs are currently stored.
func (m *MockBlobStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// StubDecoder returns canned decode results without touching real PDF data.
type StubDecoder struct {
	mu sync.Mutex

	// Result is returned for every name without an explicit override.
	Result models.DecodeResult

	// Errs maps file names to decode errors.
	Errs map[string]error

	calls []string
}

func NewStubDecoder() *StubDecoder {
	return &StubDecoder{
		Result: models.DecodeResult{PageCount: 1, Excerpt: "stub"},
		Errs:   make(map[string]error),
	}
}

func (d *StubDecoder) Decode(name string, data []byte) (*models.DecodeResult, error) {
	d.mu.Lock()
	d.calls = append(d.calls, name)
	d.mu.Unlock()
	if err, ok := d.Errs[name]; ok {
		return nil, err
	}
	res := d.Result
	return &res, nil
}

// Calls returns the names passed to Decode in order.
func (d *StubDecoder) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}
