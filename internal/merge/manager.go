// Package merge runs merge jobs over a workspace's ordered file set. The
// actual page copying and serialization is delegated to the merge builder;
// this package owns sequencing, progress and failure attribution.
package merge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdfbinder/backend/internal/models"
	"github.com/pdfbinder/backend/internal/pdfops"
)

// ErrInsufficientFiles is returned when a merge is requested with fewer than
// two entries. No job is created in that case.
var ErrInsufficientFiles = errors.New("at least two files are required to merge")

// EntryError names the entry whose processing failed during a merge.
type EntryError struct {
	FileID   string
	FileName string
	Err      error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("merging %s: %v", e.FileName, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Status represents the merge job status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Job represents one merge attempt over a snapshot of a workspace.
type Job struct {
	ID             string     `json:"id"`
	WorkspaceID    string     `json:"workspaceId"`
	Status         Status     `json:"status"`
	Progress       float64    `json:"progress"` // 0-100
	TotalFiles     int        `json:"totalFiles"`
	MergedFiles    int        `json:"mergedFiles"`
	FileName       string     `json:"fileName,omitempty"`
	Error          string     `json:"error,omitempty"`
	FailedFileID   string     `json:"failedFileId,omitempty"`
	FailedFileName string     `json:"failedFileName,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`

	result []byte
}

// Builder is the stateful merge service consumed per job. Appends are issued
// strictly in entry order; a Builder is used for exactly one job.
type Builder interface {
	Append(name string, data []byte) error
	Finalize() ([]byte, error)
}

// BlobReader re-reads the original raw bytes of an entry.
type BlobReader interface {
	Read(id string) ([]byte, error)
}

// Manager handles async merge jobs.
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	blobs   BlobReader
	profile func() models.MergeProfile

	// newBuilder is swapped out in tests.
	newBuilder func(models.MergeProfile) Builder
}

// NewManager creates a merge job manager. profile is read once per job, at
// start.
func NewManager(blobs BlobReader, profile func() models.MergeProfile) *Manager {
	return &Manager{
		jobs:    make(map[string]*Job),
		blobs:   blobs,
		profile: profile,
		newBuilder: func(p models.MergeProfile) Builder {
			return pdfops.NewBuilder(p)
		},
	}
}

// StartMerge begins an async merge over the given snapshot. The snapshot is
// taken by the caller at invocation; mutations of the workspace afterwards do
// not affect the job. Fewer than two entries returns ErrInsufficientFiles and
// performs no work.
func (m *Manager) StartMerge(workspaceID string, entries []models.FileEntry) (Job, error) {
	if len(entries) < 2 {
		return Job{}, ErrInsufficientFiles
	}

	job := &Job{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Status:      StatusPending,
		TotalFiles:  len(entries),
		CreatedAt:   time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	// Snapshot before the goroutine starts; run mutates job under the lock.
	snapshot := *job
	m.mu.Unlock()

	go m.run(job, entries)

	return snapshot, nil
}

// run processes one job: strictly sequential appends in snapshot order, then
// finalize. Failure at any entry aborts the whole job with no artifact.
func (m *Manager) run(job *Job, entries []models.FileEntry) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Merge %s] PANIC recovered: %v\n", job.ID[:8], r)
			m.markError(job, fmt.Sprintf("merge panicked: %v", r), nil)
		}
	}()

	fmt.Printf("[Merge %s] Starting merge of %d files\n", job.ID[:8], len(entries))

	prof := m.profile()
	b := m.newBuilder(prof)

	m.mu.Lock()
	job.Status = StatusRunning
	m.mu.Unlock()

	for i, entry := range entries {
		data, err := m.blobs.Read(entry.ID)
		if err != nil {
			m.markError(job, fmt.Sprintf("reading %s: %v", entry.Name, err), &entry)
			return
		}

		if err := b.Append(entry.Name, data); err != nil {
			m.markError(job, (&EntryError{FileID: entry.ID, FileName: entry.Name, Err: err}).Error(), &entry)
			return
		}

		m.mu.Lock()
		job.MergedFiles = i + 1
		// Appends cover 0-90%; finalization is the last 10%.
		job.Progress = float64(i+1) * 90.0 / float64(len(entries))
		m.mu.Unlock()
	}

	out, err := b.Finalize()
	if err != nil {
		m.markError(job, fmt.Sprintf("finalizing merge: %v", err), nil)
		return
	}

	now := time.Now()

	m.mu.Lock()
	job.result = out
	job.FileName = outputName(prof.OutputPrefix, now)
	job.Status = StatusComplete
	job.Progress = 100
	job.CompletedAt = &now
	m.mu.Unlock()

	fmt.Printf("[Merge %s] Complete: %s (%d bytes)\n", job.ID[:8], job.FileName, len(out))
}

// markError marks a job failed. entry is the failing file, if the failure is
// attributable to one.
func (m *Manager) markError(job *Job, msg string, entry *models.FileEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusError
	job.Error = msg
	if entry != nil {
		job.FailedFileID = entry.ID
		job.FailedFileName = entry.Name
	}
	now := time.Now()
	job.CompletedAt = &now

	fmt.Printf("[Merge %s] Error: %s\n", job.ID[:8], msg)
}

// GetJob returns a snapshot of a job by ID.
func (m *Manager) GetJob(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Result returns the merged artifact and its suggested filename. Only
// complete jobs have a result.
func (m *Manager) Result(id string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok || job.Status != StatusComplete {
		return nil, "", false
	}
	return job.result, job.FileName, true
}

// CleanupOldJobs removes finished jobs older than maxAge, releasing their
// artifact buffers.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for id, job := range m.jobs {
		if job.Status != StatusComplete && job.Status != StatusError {
			continue
		}
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
		}
	}
}

// outputName builds the suggested download filename.
func outputName(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = "merged"
	}
	return fmt.Sprintf("%s-%s.pdf", prefix, t.Format("20060102-150405"))
}
