package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"scantext/pkg/models"
)

// MediaIndex makes exported artifacts discoverable outside the session, the
// way the platform media scanner does for a mobile app.
type MediaIndex interface {
	Register(artifact models.ExportArtifact) error
}

// ManifestIndexName is the manifest file a ManifestIndex maintains inside the
// output directory.
const ManifestIndexName = "media-index.json"

// ManifestIndex is a MediaIndex that appends one JSON line per registered
// artifact to a manifest file in the output directory.
type ManifestIndex struct {
	mu   sync.Mutex
	path string
}

// NewManifestIndex creates a manifest index rooted in dir.
func NewManifestIndex(dir string) *ManifestIndex {
	return &ManifestIndex{path: filepath.Join(dir, ManifestIndexName)}
}

type manifestEntry struct {
	Path         string              `json:"path"`
	Format       models.ExportFormat `json:"format"`
	Size         int64               `json:"size_bytes"`
	CreatedAt    time.Time           `json:"created_at"`
	RegisteredAt time.Time           `json:"registered_at"`
}

func (m *ManifestIndex) Register(artifact models.ExportArtifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := manifestEntry{
		Path:         artifact.Path,
		Format:       artifact.Format,
		Size:         artifact.Size,
		CreatedAt:    artifact.CreatedAt,
		RegisteredAt: time.Now(),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// NopIndex is a MediaIndex that registers nothing.
type NopIndex struct{}

func (NopIndex) Register(models.ExportArtifact) error { return nil }
