package engine

import (
	"fmt"

	"github.com/haskel/readalloc/internal/config"
	"github.com/haskel/readalloc/internal/estimator/model"
	"github.com/haskel/readalloc/internal/storage"
)

// Definition sources reported by ResolveDefinition.
const (
	SourceBuiltin = "builtin"
	SourceSaved   = "saved"
)

// ResolveDefinition picks the estimator definition: the override path, then
// the configured path, then the definition saved in the data directory, then
// the built-in demo. The second result names where it came from.
func ResolveDefinition(override string, cfg config.EstimatorConfig, ms *storage.ModelStorage) (*model.Definition, string, error) {
	for _, path := range []string{override, cfg.Definition} {
		if path == "" {
			continue
		}
		def, err := model.LoadDefinition(path)
		if err != nil {
			return nil, "", fmt.Errorf("load estimator definition %s: %w", path, err)
		}
		return def, path, nil
	}

	if ms != nil {
		def, err := ms.LoadDefinition()
		if err != nil {
			return nil, "", err
		}
		if def != nil {
			return def, SourceSaved, nil
		}
	}

	return model.DefaultDefinition(), SourceBuiltin, nil
}
