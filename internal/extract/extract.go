// Package extract finds log files and combines them into one stream.
package extract

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Find expands glob patterns ("**" matches any number of directories) and
// returns the matching regular files, oldest modification first. A file
// matched by several patterns is listed once.
func Find(patterns ...string) ([]string, error) {
	type found struct {
		path string
		info os.FileInfo
	}
	seen := map[string]bool{}
	var files []found
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			info, err := os.Stat(m)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", m, err)
			}
			if !info.Mode().IsRegular() {
				continue
			}
			seen[m] = true
			files = append(files, found{m, info})
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i].info.ModTime(), files[j].info.ModTime()
		if a.Equal(b) {
			return files[i].path < files[j].path
		}
		return a.Before(b)
	})
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// Combine copies each file to w in order, making sure every file ends with
// a newline so the last line of one file never joins the first of the
// next.
func Combine(w io.Writer, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if len(data) == 0 {
			continue
		}
		if data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write combined log: %w", err)
		}
	}
	return nil
}
