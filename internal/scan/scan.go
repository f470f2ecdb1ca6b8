// Package scan expands command-line path arguments into the list of source
// files to rewrite, honouring .gitignore when walking directories.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ErrNotFound is returned when a path argument does not exist.
var ErrNotFound = errors.New("file not found")

var defaultIgnores = []string{
	"node_modules/",
	"dist/",
	"build/",
	"out/",
	"coverage/",
	".git/",
	"*.d.ts",
}

type Options struct {
	Extensions []string // e.g. ".ts"; files named explicitly bypass this filter
	Ignore     []string // extra gitignore-style patterns applied to directory walks
}

// Expand resolves each path: files are returned as given, directories are walked.
// The result is sorted and contains no duplicates.
func Expand(paths []string, opts Options) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(filepath.Clean(p))
			continue
		}

		found, err := walk(p, opts)
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

func walk(root string, opts Options) ([]string, error) {
	patterns := append([]string{}, defaultIgnores...)
	patterns = append(patterns, opts.Ignore...)

	gitignorePath := filepath.Join(root, ".gitignore")
	if data, err := os.ReadFile(gitignorePath); err == nil {
		patterns = append(patterns, strings.Split(string(data), "\n")...)
	}
	matcher := ignore.CompileIgnoreLines(patterns...)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}

		// Append slash for directories so patterns ending in '/' match
		toMatch := filepath.ToSlash(rel)
		if d.IsDir() {
			toMatch += "/"
		}
		if matcher.MatchesPath(toMatch) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !hasExtension(path, opts.Extensions) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
