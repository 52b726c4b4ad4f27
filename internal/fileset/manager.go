package fileset

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxWorkspaces limits concurrent workspaces to prevent memory exhaustion.
const MaxWorkspaces = 50

// Workspace ties one browser session to its ordered file set.
type Workspace struct {
	ID           string
	Set          *Set
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Manager handles active workspaces.
type Manager struct {
	mu         sync.RWMutex
	workspaces map[string]*Workspace
	dec        Decoder
	blobs      BlobStore
}

// NewManager creates a workspace manager. All workspaces share the decode
// service and blob store.
func NewManager(dec Decoder, blobs BlobStore) *Manager {
	return &Manager{
		workspaces: make(map[string]*Workspace),
		dec:        dec,
		blobs:      blobs,
	}
}

// Create starts a new empty workspace.
func (m *Manager) Create() *Workspace {
	m.cleanupIfNeeded()

	ws := &Workspace{
		ID:           uuid.New().String(),
		Set:          New(m.dec, m.blobs),
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
	}

	m.mu.Lock()
	m.workspaces[ws.ID] = ws
	m.mu.Unlock()

	fmt.Printf("[Workspace %s] Created\n", ws.ID[:8])
	return ws
}

// Get returns a workspace by ID.
func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws, ok := m.workspaces[id]
	return ws, ok
}

// Touch updates the LastAccessed timestamp so an active workspace is not
// cleaned up.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[id]
	if !ok {
		return false
	}
	ws.LastAccessed = time.Now()
	return true
}

// Delete drops a workspace, clearing its file set and blobs. Unknown ids are
// a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	ws, ok := m.workspaces[id]
	if ok {
		delete(m.workspaces, id)
	}
	m.mu.Unlock()

	if ok {
		ws.Set.Clear()
		fmt.Printf("[Workspace %s] Deleted\n", id[:8])
	}
}

// CleanupOld removes workspaces idle longer than maxAge.
func (m *Manager) CleanupOld(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var stale []*Workspace
	for id, ws := range m.workspaces {
		if ws.LastAccessed.Before(cutoff) {
			stale = append(stale, ws)
			delete(m.workspaces, id)
		}
	}
	m.mu.Unlock()

	for _, ws := range stale {
		ws.Set.Clear()
		fmt.Printf("[Workspace %s] Cleaned up after %s idle\n",
			ws.ID[:8], time.Since(ws.LastAccessed).Round(time.Second))
	}
}

// cleanupIfNeeded evicts the least recently used workspaces when at capacity.
func (m *Manager) cleanupIfNeeded() {
	m.mu.Lock()

	var evicted []*Workspace
	for len(m.workspaces) >= MaxWorkspaces {
		var oldest *Workspace
		for _, ws := range m.workspaces {
			if oldest == nil || ws.LastAccessed.Before(oldest.LastAccessed) {
				oldest = ws
			}
		}
		if oldest == nil {
			break
		}
		delete(m.workspaces, oldest.ID)
		evicted = append(evicted, oldest)
	}
	m.mu.Unlock()

	for _, ws := range evicted {
		ws.Set.Clear()
		fmt.Printf("[Workspace %s] Evicted to free capacity\n", ws.ID[:8])
	}
}
