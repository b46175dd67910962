package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/fsutil"
)

const (
	extHCL  = ".hcl"
	extJSON = ".json"
)

// ResolvePath returns the graph files found at path. A file is returned as
// is when its extension is supported; a directory is scanned recursively.
func ResolvePath(ctx context.Context, path string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving graph path.", "path", path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("graph path not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if info.IsDir() {
		logger.Debug("Path is a directory, scanning for graph files.", "directory", path)
		files, err := fsutil.FindFilesByExtension(path, extHCL, extJSON)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no %s or %s files found in %s", extHCL, extJSON, path)
		}
		return files, nil
	}

	switch filepath.Ext(path) {
	case extHCL, extJSON:
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("unsupported graph file extension %q: %s", filepath.Ext(path), path)
	}
}
