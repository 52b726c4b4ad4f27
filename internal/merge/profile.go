package merge

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/pdfbinder/backend/internal/models"
)

// ProfileStore holds the active merge profile, backed by a YAML file under
// the data directory. A missing file means the built-in default.
type ProfileStore struct {
	mu      sync.RWMutex
	path    string
	current models.MergeProfile
}

// NewProfileStore creates a store backed by path, starting from the default
// profile.
func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{
		path:    path,
		current: models.DefaultMergeProfile(),
	}
}

// Load reads the profile file if it exists. Absence is not an error.
func (p *ProfileStore) Load() error {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading merge profile: %w", err)
	}

	var prof models.MergeProfile
	if err := yaml.Unmarshal(data, &prof); err != nil {
		return fmt.Errorf("parsing merge profile: %w", err)
	}

	p.mu.Lock()
	p.current = sanitize(prof)
	p.mu.Unlock()
	return nil
}

// Current returns the active profile.
func (p *ProfileStore) Current() models.MergeProfile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Update replaces the active profile and persists it.
func (p *ProfileStore) Update(prof models.MergeProfile) error {
	prof = sanitize(prof)

	data, err := yaml.Marshal(prof)
	if err != nil {
		return fmt.Errorf("encoding merge profile: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		return fmt.Errorf("writing merge profile: %w", err)
	}

	p.mu.Lock()
	p.current = prof
	p.mu.Unlock()
	return nil
}

// sanitize keeps the output prefix usable as a filename component.
func sanitize(prof models.MergeProfile) models.MergeProfile {
	prefix := strings.TrimSpace(prof.OutputPrefix)
	prefix = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, prefix)
	if prefix == "" {
		prefix = "merged"
	}
	prof.OutputPrefix = prefix
	return prof
}
