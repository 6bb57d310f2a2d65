package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Data represents the persisted run history.
type Data struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Runs      []*Run    `json:"runs"`
}

const (
	currentVersion = 1
	dataFileName   = "readalloc_runs.json"
)

// FileStore keeps the run history in memory and flushes it to a JSON file
// in the data directory.
type FileStore struct {
	dataDir       string
	flushInterval time.Duration
	logger        *slog.Logger

	mu     sync.RWMutex
	data   *Data
	dirty  bool
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFileStore creates a new FileStore.
func NewFileStore(dataDir string, flushInterval time.Duration, logger *slog.Logger) *FileStore {
	return &FileStore{
		dataDir:       dataDir,
		flushInterval: flushInterval,
		logger:        logger,
		data:          newEmptyData(),
		done:          make(chan struct{}),
	}
}

func newEmptyData() *Data {
	return &Data{
		Version:   currentVersion,
		UpdatedAt: time.Now(),
	}
}

// Path returns the history file path.
func (s *FileStore) Path() string {
	return filepath.Join(s.dataDir, dataFileName)
}

// Load loads the history from disk. If the file doesn't exist, the history
// starts empty.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.Path()

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no existing run history, starting fresh", "path", filePath)
			s.data = newEmptyData()
			return nil
		}
		return err
	}
	defer file.Close()

	var data Data
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		s.logger.Warn("failed to decode run history, starting fresh", "error", err)
		s.data = newEmptyData()
		return nil
	}

	if data.Version > currentVersion {
		s.logger.Warn("run history version is newer than supported, starting fresh",
			"file_version", data.Version,
			"supported_version", currentVersion,
		)
		s.data = newEmptyData()
		return nil
	}

	s.data = &data
	s.logger.Info("loaded run history",
		"path", filePath,
		"runs", len(data.Runs),
	)

	return nil
}

// Save saves the history to disk.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked()
}

func (s *FileStore) saveLocked() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}

	filePath := s.Path()
	tempPath := filePath + ".tmp"

	s.data.UpdatedAt = time.Now()

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	// Atomic rename
	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return err
	}

	s.dirty = false
	s.logger.Debug("saved run history", "path", filePath, "runs", len(s.data.Runs))

	return nil
}

// Start starts the periodic flush goroutine.
func (s *FileStore) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go s.flushLoop(ctx)
}

// Close stops the periodic flush and saves the final state.
func (s *FileStore) Close() error {
	if s.cancel != nil {
		s.cancel()
		<-s.done
		s.cancel = nil
	}

	if !s.IsDirty() {
		return nil
	}
	return s.Save()
}

func (s *FileStore) flushLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.IsDirty() {
				if err := s.Save(); err != nil {
					s.logger.Error("failed to save run history", "error", err)
				}
			}
		}
	}
}

// SaveRun appends a run to the history.
func (s *FileStore) SaveRun(_ context.Context, run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *run
	s.data.Runs = append(s.data.Runs, &copied)
	s.dirty = true
	return nil
}

// ListRuns returns copies of the most recent runs, newest first.
func (s *FileStore) ListRuns(_ context.Context, limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.data.Runs)
	if limit <= 0 || limit > n {
		limit = n
	}

	result := make([]*Run, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		copied := *s.data.Runs[i]
		result = append(result, &copied)
	}
	return result, nil
}

// IsDirty returns whether the history has unsaved changes.
func (s *FileStore) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// RunCount returns the number of recorded runs.
func (s *FileStore) RunCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Runs)
}
