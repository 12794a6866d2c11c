// Package ignore excludes files from the import by substring rules.
//
// A rule matches any path containing it. Directories are written with a
// trailing slash (e.g. "app/lib/"), so prefix-style exclusion falls out
// of plain substring matching.
package ignore

import (
	"fmt"
	"os"
	"strings"

	"github.com/sevigo/riflesync/internal/core"
)

// Rules is an ordered set of path-substring rules.
type Rules []string

// Load reads newline-separated rules from path. A missing file is not an
// error; it means nothing is ignored.
func Load(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}

	var rules Rules
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			rules = append(rules, line)
		}
	}
	return rules, nil
}

// Match reports whether any rule is a substring of path.
func (r Rules) Match(path string) bool {
	for _, rule := range r {
		if strings.Contains(path, rule) {
			return true
		}
	}
	return false
}

// Filter drops ignored entries, preserving relative order.
func (r Rules) Filter(entries []core.ChangeEntry) []core.ChangeEntry {
	if len(r) == 0 {
		return entries
	}
	kept := make([]core.ChangeEntry, 0, len(entries))
	for _, e := range entries {
		if !r.Match(e.Path) {
			kept = append(kept, e)
		}
	}
	return kept
}
