package world

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tnttag/internal/domain"

	"github.com/google/uuid"
)

// Arena is one match's private copy of a map world.
type Arena struct {
	Map   string
	Dir   string
	spawn domain.Point3D
}

// NewArena names a fresh instance directory under root for the given map.
func NewArena(root, mapName string, spawn domain.Point3D) *Arena {
	return &Arena{
		Map:   mapName,
		Dir:   filepath.Join(root, instanceName(mapName)),
		spawn: spawn,
	}
}

// SafeSpawn returns the position players are moved to when a round starts.
func (a *Arena) SafeSpawn() domain.Point3D {
	return a.spawn
}

// Prepare starts copying the map template from source into the instance
// directory. An empty source completes immediately.
func (a *Arena) Prepare(ctx context.Context, cloner Cloner, source string) *Readiness {
	if source == "" {
		return Done()
	}
	return cloner.Clone(ctx, map[string]string{source: a.Dir})
}

// Remove deletes the instance directory.
func (a *Arena) Remove() error {
	return RemoveInstance(a.Dir)
}

// RemoveInstance deletes a cloned instance directory. Removing a directory
// that does not exist is not an error.
func RemoveInstance(dir string) error {
	if dir == "" || dir == "." || dir == string(filepath.Separator) {
		return fmt.Errorf("refusing to remove %q", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove instance %s: %w", dir, err)
	}
	return nil
}

func instanceName(mapName string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, mapName)
	if slug == "" {
		slug = "arena"
	}
	return slug + "-" + uuid.NewString()
}
