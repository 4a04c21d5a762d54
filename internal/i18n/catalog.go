// Package i18n serves the UI message catalogues. Base messages are embedded
// TOML files; rows in yt_translations override individual keys.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/models"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

const DefaultLocale = "en"

//go:embed locales/*.toml
var localeFS embed.FS

type Catalog struct {
	mu        sync.RWMutex
	def       string
	locales   []string
	base      map[string]map[string]string
	overrides map[string]map[string]string
	matcher   language.Matcher
}

// Load parses the embedded catalogues. def must be one of them.
func Load(def string) (*Catalog, error) {
	return LoadFS(localeFS, "locales", def)
}

func LoadFS(fsys fs.FS, dir, def string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	c := &Catalog{
		def:       def,
		base:      make(map[string]map[string]string),
		overrides: make(map[string]map[string]string),
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".toml" {
			continue
		}
		locale := strings.TrimSuffix(e.Name(), ".toml")
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		msgs, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", locale, err)
		}
		c.base[locale] = msgs
	}
	if _, ok := c.base[def]; !ok {
		return nil, fmt.Errorf("default locale %q has no catalogue", def)
	}

	c.locales = make([]string, 0, len(c.base))
	for l := range c.base {
		if l != def {
			c.locales = append(c.locales, l)
		}
	}
	sort.Strings(c.locales)
	// The matcher falls back to its first tag.
	c.locales = append([]string{def}, c.locales...)

	tags := make([]language.Tag, len(c.locales))
	for i, l := range c.locales {
		tags[i] = language.Make(l)
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

// Parse decodes a TOML catalogue into flat dotted keys.
func Parse(data []byte) (map[string]string, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	flatten("", raw, out)
	return out, nil
}

func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func (c *Catalog) Default() string { return c.def }

func (c *Catalog) Locales() []string {
	return append([]string(nil), c.locales...)
}

func (c *Catalog) Supported(locale string) bool {
	_, ok := c.base[locale]
	return ok
}

// Match picks the first candidate that maps to a supported locale. Each
// candidate may be a bare tag or a full Accept-Language header.
func (c *Catalog) Match(candidates ...string) string {
	for _, cand := range candidates {
		cand = strings.TrimSpace(cand)
		if cand == "" {
			continue
		}
		if c.Supported(cand) {
			return cand
		}
		tags, _, err := language.ParseAcceptLanguage(cand)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := c.matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		return c.locales[idx]
	}
	return c.def
}

// Messages returns the merged catalogue for locale: default, then locale,
// then database overrides.
func (c *Catalog) Messages(locale string) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.base[c.def]))
	for k, v := range c.base[c.def] {
		out[k] = v
	}
	if locale != c.def {
		for k, v := range c.base[locale] {
			out[k] = v
		}
	}
	for k, v := range c.overrides[locale] {
		out[k] = v
	}
	return out
}

// Base returns the embedded messages of locale without overrides.
func (c *Catalog) Base(locale string) map[string]string {
	return c.base[locale]
}

// T translates key, substituting {name} placeholders from args given as
// alternating name/value pairs. Unknown keys return the key itself.
func (c *Catalog) T(locale, key string, args ...interface{}) string {
	c.mu.RLock()
	msg, ok := c.overrides[locale][key]
	if !ok {
		msg, ok = c.base[locale][key]
	}
	if !ok {
		msg, ok = c.base[c.def][key]
	}
	c.mu.RUnlock()
	if !ok {
		return key
	}
	for i := 0; i+1 < len(args); i += 2 {
		msg = strings.ReplaceAll(msg, "{"+fmt.Sprint(args[i])+"}", fmt.Sprint(args[i+1]))
	}
	return msg
}

func (c *Catalog) SetOverride(locale, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overrides[locale] == nil {
		c.overrides[locale] = make(map[string]string)
	}
	c.overrides[locale][key] = value
}

func (c *Catalog) DeleteOverride(locale, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.overrides[locale], key)
}

// LoadOverrides replaces the in-memory overrides with the yt_translations rows.
func (c *Catalog) LoadOverrides(db *gorm.DB) error {
	var rows []models.Translation
	if err := db.Find(&rows).Error; err != nil {
		return fmt.Errorf("failed to load translations: %w", err)
	}
	next := make(map[string]map[string]string)
	for _, r := range rows {
		if next[r.Locale] == nil {
			next[r.Locale] = make(map[string]string)
		}
		next[r.Locale][r.Key] = r.Value
	}
	c.mu.Lock()
	c.overrides = next
	c.mu.Unlock()
	return nil
}

// MissingKeys compares other against base: keys base has and other lacks,
// and keys only other has.
func MissingKeys(base, other map[string]string) (missing, extra []string) {
	for k := range base {
		if _, ok := other[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range other {
		if _, ok := base[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}
