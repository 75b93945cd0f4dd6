package harness

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CleanListFile, when present in a project directory, lists extra
// generated-output patterns, one per line. Lines starting with # are
// comments.
const CleanListFile = ".pkltask-clean"

// ResetToBaseline removes everything under dir matching globs (plus the
// patterns in dir/.pkltask-clean) and returns the removed paths.
//
// A plain pattern ("bin", "*.g.json") matches entries directly under dir.
// A pattern with a "**/" prefix matches entries at any depth by base name.
// The call is idempotent and does not depend on any version-control tool.
func ResetToBaseline(dir string, globs []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectDirMissing, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrProjectDirMissing, dir)
	}

	extra, err := readCleanList(filepath.Join(dir, CleanListFile))
	if err != nil {
		return nil, err
	}
	patterns := append(append([]string(nil), globs...), extra...)

	targets, err := matchGenerated(dir, patterns)
	if err != nil {
		return nil, err
	}

	var errs []error
	var removed []string
	for _, target := range targets {
		if err := os.RemoveAll(target); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", target, err))
			continue
		}
		removed = append(removed, target)
	}
	return removed, errors.Join(errs...)
}

func matchGenerated(dir string, patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var shallow, deep []string
	for _, p := range patterns {
		p = filepath.ToSlash(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, err := filepath.Match(strings.TrimPrefix(p, "**/"), ""); err != nil {
			return nil, fmt.Errorf("invalid clean pattern %q: %w", p, err)
		}
		if strings.HasPrefix(p, "**/") {
			deep = append(deep, strings.TrimPrefix(p, "**/"))
			continue
		}
		shallow = append(shallow, p)
	}

	for _, p := range shallow {
		matches, err := filepath.Glob(filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("invalid clean pattern %q: %w", p, err)
		}
		for _, m := range matches {
			seen[m] = true
		}
	}

	if len(deep) > 0 {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == dir {
				return nil
			}
			for _, p := range deep {
				if ok, _ := filepath.Match(p, d.Name()); ok {
					seen[path] = true
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	}

	// Never remove the clean list itself.
	delete(seen, filepath.Join(dir, CleanListFile))

	targets := make([]string, 0, len(seen))
	for t := range seen {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return pruneNested(targets), nil
}

// pruneNested drops paths already covered by a removed ancestor.
func pruneNested(sorted []string) []string {
	var out []string
	for _, p := range sorted {
		if len(out) > 0 && strings.HasPrefix(p, out[len(out)-1]+string(filepath.Separator)) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func readCleanList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return patterns, nil
}
