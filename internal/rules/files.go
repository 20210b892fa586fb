package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveGoverned takes user-provided paths/globs and returns the matching
// governed files. If patterns is empty, every governed file under the rule
// root is returned.
func (m *Matcher) ResolveGoverned(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return m.findGovernedInDir(m.root)
	}

	var files []string
	seen := make(map[string]bool) // Deduplicate.

	for _, pattern := range patterns {
		resolved, err := m.resolvePattern(pattern)
		if err != nil {
			return nil, err
		}

		for _, f := range resolved {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no matching governed files found")
	}

	return files, nil
}

func (m *Matcher) resolvePattern(pattern string) ([]string, error) {
	// Convert relative patterns to absolute paths based on the rule root.
	absPattern := pattern
	if !filepath.IsAbs(pattern) {
		absPattern = filepath.Join(m.root, pattern)
	}

	// Check if it's a directory.
	info, err := os.Stat(absPattern)
	if err == nil && info.IsDir() {
		return m.findGovernedInDir(absPattern)
	}

	// Check if it contains glob characters.
	if strings.ContainsAny(pattern, "*?[") {
		return m.expandGlob(absPattern)
	}

	// Treat as literal file path.
	if _, err := os.Stat(absPattern); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", pattern)
	}

	if !m.HasMatchingRule(absPattern) {
		return nil, fmt.Errorf("no rule in %s matches: %s", ConfigFileName, pattern)
	}

	return []string{absPattern}, nil
}

func (m *Matcher) expandGlob(absPattern string) ([]string, error) {
	// doublestar for ** support.
	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", absPattern, err)
	}

	var filtered []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if filepath.Base(match) == ConfigFileName {
			continue
		}
		if m.HasMatchingRule(match) {
			filtered = append(filtered, match)
		}
	}

	return filtered, nil
}

func (m *Matcher) findGovernedInDir(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Hidden directories (.git and friends) are never governed.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if d.Name() == ConfigFileName {
			return nil
		}
		if m.HasMatchingRule(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}
