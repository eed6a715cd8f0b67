// Package walker finds the Markdown files a batch render should process.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoFiles is returned when no argument resolved to a file.
var ErrNoFiles = errors.New("walker: no Markdown files matched")

var markdownExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
}

// IsMarkdown reports whether path has a Markdown extension.
func IsMarkdown(path string) bool {
	return markdownExts[strings.ToLower(filepath.Ext(path))]
}

// Expand resolves command-line arguments to files, in argument order with
// duplicates removed. A plain file is taken as-is whatever its extension.
// A directory is searched recursively for Markdown files. Anything with glob
// metacharacters is matched with doublestar, so ** crosses directories.
// Paths matching an exclude pattern are dropped from directory and glob
// results.
func Expand(args []string, exclude []string) ([]string, error) {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(paths ...string) {
		for _, p := range paths {
			clean := filepath.Clean(p)
			if !seen[clean] {
				seen[clean] = true
				out = append(out, clean)
			}
		}
	}

	for _, arg := range args {
		if isPattern(arg) {
			matches, err := glob(arg, exclude)
			if err != nil {
				return nil, err
			}
			add(matches...)
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("walker: %w", err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		found, err := walkDir(arg, exclude)
		if err != nil {
			return nil, err
		}
		add(found...)
	}

	if len(out) == 0 {
		return nil, ErrNoFiles
	}
	return out, nil
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func glob(pattern string, exclude []string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("walker: bad pattern %q: %w", pattern, err)
	}
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	var out []string
	for _, m := range matches {
		if !IsMarkdown(m) {
			continue
		}
		rel, err := filepath.Rel(filepath.FromSlash(base), m)
		if err != nil {
			rel = m
		}
		if excludedPath(rel) || MatchesExclude(rel, exclude) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func walkDir(root string, exclude []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsMarkdown(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if MatchesExclude(rel, exclude) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: walking %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// excludedPath reports whether any directory on the relative path is
// excluded by default.
func excludedPath(path string) bool {
	dir := filepath.Dir(filepath.Clean(path))
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part != "." && part != ".." && shouldExcludeDir(part) {
			return true
		}
	}
	return false
}
