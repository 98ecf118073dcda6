package ctrl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ehrlich-b/nvme-admind/backend"
	"github.com/ehrlich-b/nvme-admind/internal/interfaces"
)

// DefaultNamespaceBackendFactory creates one backing file per namespace
// under dir (created on first use), named nsN.img. An empty dir falls
// back to os.TempDir.
func DefaultNamespaceBackendFactory(dir string) NamespaceBackendFactory {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "nvme-admind-namespaces")
	}
	return func(nsid uint32, sizeBytes int64) (interfaces.DiskBackend, error) {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fmt.Sprintf("ns%d.img", nsid))
		return backend.NewFileNamespace(path, sizeBytes)
	}
}
