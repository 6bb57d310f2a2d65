package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/haskel/readalloc/internal/estimator/model"
)

const (
	definitionFileName = "estimator.yaml"
)

// ModelStorage handles persistence of the estimator definition.
type ModelStorage struct {
	dataDir string
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewModelStorage creates a new ModelStorage rooted at dataDir.
func NewModelStorage(dataDir string, logger *slog.Logger) *ModelStorage {
	return &ModelStorage{dataDir: dataDir, logger: logger}
}

// Path returns the definition file path.
func (ms *ModelStorage) Path() string {
	return filepath.Join(ms.dataDir, definitionFileName)
}

// SaveDefinition validates and writes a definition to disk.
func (ms *ModelStorage) SaveDefinition(def *model.Definition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid estimator definition: %w", err)
	}
	data, err := def.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode estimator definition: %w", err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := os.MkdirAll(ms.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	filePath := ms.Path()
	tempPath := filePath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	ms.logger.Debug("saved estimator definition", "path", filePath)
	return nil
}

// LoadDefinition loads the saved definition. It returns nil without an
// error when nothing has been saved yet.
func (ms *ModelStorage) LoadDefinition() (*model.Definition, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	filePath := ms.Path()
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		ms.logger.Info("no saved estimator definition", "path", filePath)
		return nil, nil
	}

	def, err := model.LoadDefinition(filePath)
	if err != nil {
		return nil, err
	}

	ms.logger.Info("loaded estimator definition", "path", filePath, "kind", def.Kind)
	return def, nil
}

// DefinitionExists returns whether a saved definition exists.
func (ms *ModelStorage) DefinitionExists() bool {
	_, err := os.Stat(ms.Path())
	return err == nil
}

// DefinitionInfo describes the saved definition file.
type DefinitionInfo struct {
	Exists    bool      `json:"exists"`
	Path      string    `json:"path"`
	Size      int64     `json:"size,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// GetDefinitionInfo returns information about the saved definition.
func (ms *ModelStorage) GetDefinitionInfo() DefinitionInfo {
	filePath := ms.Path()
	info := DefinitionInfo{
		Path: filePath,
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return info
	}

	info.Exists = true
	info.Size = stat.Size()
	info.UpdatedAt = stat.ModTime()
	return info
}

// DeleteDefinition deletes the saved definition file.
func (ms *ModelStorage) DeleteDefinition() error {
	if err := os.Remove(ms.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete estimator definition: %w", err)
	}
	return nil
}
