package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

const (
	// BaseLocale is the canonical locale every other catalogue falls back to.
	BaseLocale = "en-US"
)

//go:embed locales/*.json
var embeddedLocales embed.FS

// entry is one catalogue value: a single message or a list of lines.
type entry struct {
	text  string
	lines []string
}

func (e *entry) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &e.text); err == nil {
		e.lines = []string{e.text}
		return nil
	}
	if err := json.Unmarshal(data, &e.lines); err != nil {
		return fmt.Errorf("value must be a string or a list of strings: %w", err)
	}
	e.text = strings.Join(e.lines, "\n")
	return nil
}

type localeFile struct {
	Locale string                      `json:"locale"`
	Topics map[string]map[string]entry `json:"topics"`
}

// Catalog holds the message catalogues of every supported locale.
type Catalog struct {
	locales map[string]map[string]map[string]entry
	tags    []language.Tag
	matcher language.Matcher
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// Default returns the catalogue built from the embedded locale files.
func Default() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = LoadFromFS(embeddedLocales)
	})
	return defaultCatalog, defaultCatalogErr
}

// LoadFromFS loads every locales/*.json file from fsys.
func LoadFromFS(fsys fs.FS) (*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*.json")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogues: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locale catalogues found")
	}
	sort.Strings(paths)

	c := &Catalog{locales: make(map[string]map[string]map[string]entry, len(paths))}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read catalogue %s: %w", path, err)
		}
		var file localeFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalogue %s: %w", path, err)
		}
		if err := c.add(path, file); err != nil {
			return nil, err
		}
	}

	if _, ok := c.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined", BaseLocale)
	}

	// The base locale goes first so the matcher falls back to it.
	c.tags = append([]language.Tag{language.MustParse(BaseLocale)}, c.tags...)
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

func (c *Catalog) add(path string, file localeFile) error {
	locale := strings.TrimSpace(file.Locale)
	if locale == "" {
		return fmt.Errorf("catalogue %s: locale is required", path)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("catalogue %s: parse locale %q: %w", path, locale, err)
	}
	if _, exists := c.locales[locale]; exists {
		return fmt.Errorf("catalogue %s: locale %q already defined", path, locale)
	}
	if len(file.Topics) == 0 {
		return fmt.Errorf("catalogue %s: topics are required", path)
	}
	c.locales[locale] = file.Topics
	if locale != BaseLocale {
		c.tags = append(c.tags, tag)
	}
	return nil
}

// Locales returns the supported locale identifiers, base locale first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, tag := range c.tags {
		out[i] = tag.String()
	}
	return out
}

// Resolve returns the supported locale closest to the requested one.
// Unknown or malformed requests resolve to the base locale.
func (c *Catalog) Resolve(locale string) string {
	locale = strings.TrimSpace(locale)
	if _, ok := c.locales[locale]; ok {
		return locale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return BaseLocale
	}
	_, index, confidence := c.matcher.Match(tag)
	if confidence == language.No {
		return BaseLocale
	}
	return c.tags[index].String()
}

func (c *Catalog) lookup(locale, topic, key string) (entry, bool) {
	resolved := c.Resolve(locale)
	if e, ok := c.locales[resolved][topic][key]; ok {
		return e, true
	}
	if resolved != BaseLocale {
		e, ok := c.locales[BaseLocale][topic][key]
		return e, ok
	}
	return entry{}, false
}

// Text renders one message. A missing message renders as "topic.key" so the
// gap is visible in game rather than silently empty.
func (c *Catalog) Text(locale, topic, key string, vars map[string]any) string {
	e, ok := c.lookup(locale, topic, key)
	if !ok {
		return topic + "." + key
	}
	return Interpolate(e.text, vars)
}

// Lines returns the raw template lines of a message, uninterpolated.
func (c *Catalog) Lines(locale, topic, key string) []string {
	e, ok := c.lookup(locale, topic, key)
	if !ok {
		return nil
	}
	return append([]string(nil), e.lines...)
}

// Localizer binds a catalogue to one locale.
func (c *Catalog) Localizer(locale string) Localizer {
	return Localizer{catalog: c, locale: c.Resolve(locale)}
}

// Localizer renders messages and scoreboard templates for a fixed locale.
type Localizer struct {
	catalog *Catalog
	locale  string
}

func (l Localizer) Locale() string { return l.locale }

func (l Localizer) Text(topic, key string, vars map[string]any) string {
	return l.catalog.Text(l.locale, topic, key, vars)
}

func (l Localizer) Lines(topic, key string) []string {
	return l.catalog.Lines(l.locale, topic, key)
}

func (Localizer) Interpolate(line string, vars map[string]any) string {
	return Interpolate(line, vars)
}
