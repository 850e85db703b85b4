package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/JakeStanger/rust-bindocs/internal/render"
)

// Target is one template and the file it renders to.
type Target struct {
	Source string
	Output string
}

// Plan expands docsPath into render targets. A single template renders to
// outputPath when that looks like a file, otherwise into it by name. A
// directory is walked and every file matching pattern is rendered to the
// same relative path under outputPath.
func Plan(docsPath, outputPath, pattern string, format render.Format) ([]Target, error) {
	if pattern == "" {
		pattern = "**/*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	info, err := os.Stat(docsPath)
	if err != nil {
		return nil, fmt.Errorf("stat docs: %w", err)
	}
	if !info.IsDir() {
		return []Target{{
			Source: docsPath,
			Output: outputFor(outputPath, filepath.Base(docsPath), format),
		}}, nil
	}

	var targets []Target
	err = filepath.WalkDir(docsPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(docsPath, path)
		if err != nil {
			return err
		}
		ok, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil || !ok {
			return err
		}
		targets = append(targets, Target{
			Source: path,
			Output: outputFor(outputPath, rel, format),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk docs: %w", err)
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].Source < targets[j].Source })
	return targets, nil
}

// IsFileLike reports whether an output path names a file rather than a
// directory. Anything with an extension is a file.
func IsFileLike(path string) bool {
	return filepath.Ext(path) != ""
}

func outputFor(outputPath, rel string, format render.Format) string {
	if IsFileLike(outputPath) {
		return outputPath
	}
	out := filepath.Join(outputPath, rel)
	if format != render.FormatMarkdown {
		out = strings.TrimSuffix(out, filepath.Ext(out)) + format.Extension()
	}
	return out
}
