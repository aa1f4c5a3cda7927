package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"tnttag/internal/domain"
)

// ArenaConfig describes one playable map.
type ArenaConfig struct {
	Name             string         `json:"name"`
	MinPlayers       int            `json:"min_players"`
	CountdownSeconds int            `json:"countdown_seconds"`
	EndSeconds       int            `json:"end_seconds"`
	WorldSource      string         `json:"world_source"`
	Spawn            domain.Point3D `json:"spawn"`
}

// Round returns the phase machine configuration for the arena.
func (a ArenaConfig) Round() domain.RoundConfig {
	return domain.RoundConfig{
		MinPlayers:       a.MinPlayers,
		CountdownSeconds: a.CountdownSeconds,
		EndSeconds:       a.EndSeconds,
		MapName:          a.Name,
	}
}

// ArenaCatalog is the arena configuration file.
type ArenaCatalog struct {
	DefaultArena string        `json:"default_arena"`
	Arenas       []ArenaConfig `json:"arenas"`
}

// fallbackArena is used when no catalogue was loaded.
var fallbackArena = ArenaConfig{
	Name:             "default",
	MinPlayers:       2,
	CountdownSeconds: 30,
	EndSeconds:       10,
}

var (
	catalog  *ArenaCatalog
	loadOnce sync.Once
	loadErr  error
)

// LoadArenaConfig loads the arena catalogue from the given path.
func LoadArenaConfig(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read arena config: %w", err)
			return
		}

		c, err := ParseArenaCatalog(data)
		if err != nil {
			loadErr = err
			return
		}
		catalog = c
	})
	return loadErr
}

// ParseArenaCatalog decodes and validates an arena catalogue.
func ParseArenaCatalog(data []byte) (*ArenaCatalog, error) {
	var c ArenaCatalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arena config: %w", err)
	}
	if len(c.Arenas) == 0 {
		return nil, errors.New("arena config defines no arenas")
	}

	seen := make(map[string]bool, len(c.Arenas))
	for i := range c.Arenas {
		a := &c.Arenas[i]
		if a.Name == "" {
			return nil, fmt.Errorf("arena %d: name is required", i)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("arena %q: defined twice", a.Name)
		}
		seen[a.Name] = true
		if a.MinPlayers <= 0 {
			return nil, fmt.Errorf("arena %q: min_players must be positive", a.Name)
		}
		if a.CountdownSeconds <= 0 {
			return nil, fmt.Errorf("arena %q: countdown_seconds must be positive", a.Name)
		}
		if a.EndSeconds < 0 {
			return nil, fmt.Errorf("arena %q: end_seconds must not be negative", a.Name)
		}
	}

	if c.DefaultArena == "" {
		c.DefaultArena = c.Arenas[0].Name
	} else if !seen[c.DefaultArena] {
		return nil, fmt.Errorf("default arena %q is not defined", c.DefaultArena)
	}
	return &c, nil
}

// GetArenaCatalog returns the loaded catalogue, or nil before a successful load.
func GetArenaCatalog() *ArenaCatalog {
	return catalog
}

// GetArena returns the named arena, or the default arena if name is empty or unknown.
func GetArena(name string) ArenaConfig {
	return catalog.Arena(name)
}

// Arena returns the named arena with default fallback. A nil catalogue
// yields the built-in fallback arena.
func (c *ArenaCatalog) Arena(name string) ArenaConfig {
	if c == nil {
		return fallbackArena
	}

	target := name
	if target == "" {
		target = c.DefaultArena
	}
	if a, ok := c.find(target); ok {
		return a
	}
	if a, ok := c.find(c.DefaultArena); ok {
		return a
	}
	return fallbackArena
}

// Has reports whether the catalogue defines an arena with the given name.
func (c *ArenaCatalog) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.find(name)
	return ok
}

// Names returns the sorted arena names.
func (c *ArenaCatalog) Names() []string {
	if c == nil {
		return []string{fallbackArena.Name}
	}
	names := make([]string, 0, len(c.Arenas))
	for _, a := range c.Arenas {
		names = append(names, a.Name)
	}
	sort.Strings(names)
	return names
}

func (c *ArenaCatalog) find(name string) (ArenaConfig, bool) {
	for _, a := range c.Arenas {
		if a.Name == name {
			return a, true
		}
	}
	return ArenaConfig{}, false
}
