package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListFiles lists the files in a directory matching a pattern. A
// pattern containing '*' is matched as a shell glob against the file
// name; any other pattern is treated as an extension, with or without
// the leading dot. Directories are skipped. With fullName the returned
// names are joined to the directory, otherwise they are bare file
// names. Results are sorted.
func ListFiles(dir, pattern string, fullName bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	glob := strings.Contains(pattern, "*")
	ext := pattern
	if !glob {
		if ext == "" {
			return nil, fmt.Errorf("pattern is required, give an extension like .tif or a glob like *.tif")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		ext = strings.ToLower(ext)
	} else {
		// Validate the glob once so a bad pattern errors instead of
		// silently matching nothing.
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if glob {
			ok, _ := filepath.Match(pattern, name)
			if !ok {
				continue
			}
		} else if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		if fullName {
			out = append(out, filepath.Join(dir, name))
		} else {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}
