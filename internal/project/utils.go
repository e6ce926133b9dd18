package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var projectExts = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// FindLatest finds the most recently modified project file in dir.
func FindLatest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read project directory: %w", err)
	}

	type candidate struct {
		path string
		mod  int64
	}
	var files []candidate
	for _, entry := range entries {
		if entry.IsDir() || !projectExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{filepath.Join(dir, entry.Name()), info.ModTime().UnixNano()})
	}

	if len(files) == 0 {
		return "", fmt.Errorf("no project files found in %s", dir)
	}

	// Newest first
	sort.Slice(files, func(i, j int) bool { return files[i].mod > files[j].mod })
	return files[0].path, nil
}
