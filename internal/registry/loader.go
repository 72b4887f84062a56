package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"inferd/internal/common/fsutil"
	"inferd/pkg/types"
)

const weightsSuffix = ".weights.json"

// LoadDir scans a directory for *.weights.json files and builds model specs
// from filenames. The object name is the filename with the suffix stripped.
func LoadDir(dir string) ([]types.ObjectSpec, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var specs []types.ObjectSpec
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), weightsSuffix) {
			continue
		}
		specs = append(specs, types.ObjectSpec{
			Name:        strings.TrimSuffix(name, weightsSuffix),
			Kind:        types.KindModel,
			WeightsPath: filepath.Join(abs, name),
		})
	}
	return specs, nil
}

// LoadLabels reads an index-to-label mapping from a JSON array file.
// This is external configuration data consumed by the gateway, not by the
// daemon itself.
func LoadLabels(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	var labels []string
	if err := json.Unmarshal(b, &labels); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}
