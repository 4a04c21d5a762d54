// Package schemafix inspects the live Postgres schema and folds legacy
// copies of the yt_* tables back into their canonical tables.
package schemafix

import (
	"sort"
	"strings"
	"time"
)

const prefix = "yt_"

var legacySuffixes = []string{"_old", "_backup", "_bak", "_copy", "_v2", "_tmp"}

// Duplicate is a legacy table that shadows a canonical one.
type Duplicate struct {
	Legacy    string   `json:"legacy"`
	Canonical string   `json:"canonical"`
	Shared    []string `json:"shared_columns,omitempty"`
}

// FindDuplicates matches existing table names against the canonical set.
// A legacy name is an unprefixed, suffixed or differently cased variant of a
// canonical name. Archived tables and exact canonical names never match.
func FindDuplicates(existing, canonical []string) []Duplicate {
	canon := make(map[string]string, len(canonical))
	for _, c := range canonical {
		canon[strings.ToLower(c)] = c
	}

	var out []Duplicate
	for _, name := range existing {
		if _, exact := canonicalExact(canonical, name); exact {
			continue
		}
		if strings.Contains(strings.ToLower(name), "_archived_") {
			continue
		}
		if c, ok := match(canon, name); ok {
			out = append(out, Duplicate{Legacy: name, Canonical: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Canonical != out[j].Canonical {
			return out[i].Canonical < out[j].Canonical
		}
		return out[i].Legacy < out[j].Legacy
	})
	return out
}

func canonicalExact(canonical []string, name string) (string, bool) {
	for _, c := range canonical {
		if c == name {
			return c, true
		}
	}
	return "", false
}

func match(canon map[string]string, name string) (string, bool) {
	base := strings.ToLower(name)
	for _, s := range legacySuffixes {
		if strings.HasSuffix(base, s) {
			base = strings.TrimSuffix(base, s)
			break
		}
	}
	if c, ok := canon[base]; ok {
		return c, true
	}
	if !strings.HasPrefix(base, prefix) {
		if c, ok := canon[prefix+base]; ok {
			return c, true
		}
	}
	return "", false
}

// SharedColumns keeps the canonical columns that the legacy table also has,
// in canonical order.
func SharedColumns(canonical, legacy []string) []string {
	have := make(map[string]bool, len(legacy))
	for _, c := range legacy {
		have[c] = true
	}
	var out []string
	for _, c := range canonical {
		if have[c] {
			out = append(out, c)
		}
	}
	return out
}

// ArchiveName is the name a merged legacy table is renamed to.
func ArchiveName(legacy string, now time.Time) string {
	return strings.ToLower(legacy) + "_archived_" + now.UTC().Format("20060102")
}
