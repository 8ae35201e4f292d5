// Package uploads owns the stored CSV files and the upload index: every
// accepted upload is kept on disk under an opaque file ID so it can be
// reprocessed later, and the index records recent uploads newest-first.
package uploads

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vibeloop/ops-copilot/internal/pkg/logger"
)

// ErrUnknownUpload is returned when a file ID is not in the index.
var ErrUnknownUpload = errors.New("upload not found")

// ErrFileMissing is returned when an indexed upload's stored file is gone.
var ErrFileMissing = errors.New("stored file missing")

const indexFilename = "index.json"

// Record describes one accepted upload.
type Record struct {
	FileID     string `json:"file_id"`
	Filename   string `json:"filename"`
	StoredName string `json:"stored_name"`
	UploadedAt string `json:"uploaded_at"`
}

// Manager stores uploaded files in a directory and maintains the JSON index,
// newest first, persisted capped at the configured size.
type Manager struct {
	dir      string
	indexCap int

	mu      sync.Mutex
	records []Record
}

// NewManager creates the upload directory if needed and loads the existing
// index. A corrupt or missing index file loads as empty rather than failing.
func NewManager(dir string, indexCap int) (*Manager, error) {
	if indexCap <= 0 {
		indexCap = 50
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	m := &Manager{dir: dir, indexCap: indexCap}

	data, err := os.ReadFile(filepath.Join(dir, indexFilename))
	if err == nil {
		if err := json.Unmarshal(data, &m.records); err != nil {
			logger.Warn("upload index is corrupt, starting empty", "error", err)
			m.records = nil
		}
	}

	return m, nil
}

// Save stores the uploaded bytes under a fresh file ID and prepends a record
// to the index.
func (m *Manager) Save(filename string, contents []byte) (Record, error) {
	fileID := uuid.New().String()
	rec := Record{
		FileID:     fileID,
		Filename:   filename,
		StoredName: fileID + ".csv",
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if err := os.WriteFile(filepath.Join(m.dir, rec.StoredName), contents, 0o644); err != nil {
		return Record{}, fmt.Errorf("storing upload: %w", err)
	}

	m.mu.Lock()
	m.records = append([]Record{rec}, m.records...)
	err := m.saveIndexLocked()
	m.mu.Unlock()
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// saveIndexLocked persists the index, trimmed to the cap. Caller holds mu.
func (m *Manager) saveIndexLocked() error {
	persisted := m.records
	if len(persisted) > m.indexCap {
		persisted = persisted[:m.indexCap]
	}
	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding upload index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, indexFilename), data, 0o644); err != nil {
		return fmt.Errorf("writing upload index: %w", err)
	}
	return nil
}

// List returns the most recent uploads, newest first, up to the index cap.
func (m *Manager) List() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records)
	if n > m.indexCap {
		n = m.indexCap
	}
	out := make([]Record, n)
	copy(out, m.records[:n])
	return out
}

// Lookup finds an upload record by file ID.
func (m *Manager) Lookup(fileID string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.FileID == fileID {
			return rec, true
		}
	}
	return Record{}, false
}

// Read returns the stored bytes for a file ID. An unknown ID yields
// ErrUnknownUpload; an indexed ID whose file disappeared yields
// ErrFileMissing.
func (m *Manager) Read(fileID string) ([]byte, Record, error) {
	rec, ok := m.Lookup(fileID)
	if !ok {
		return nil, Record{}, ErrUnknownUpload
	}
	data, err := os.ReadFile(filepath.Join(m.dir, rec.StoredName))
	if os.IsNotExist(err) {
		return nil, Record{}, ErrFileMissing
	}
	if err != nil {
		return nil, Record{}, fmt.Errorf("reading stored upload: %w", err)
	}
	return data, rec, nil
}
