package world

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Cloner copies arena world templates into per-match instance directories.
type Cloner struct {
	// Limit caps concurrent directory copies. Zero means one goroutine per pair.
	Limit int
}

// Clone copies every source directory to its target in the background and
// returns immediately. The returned signal completes when all copies finish;
// the first failure is reported by Err.
func (c Cloner) Clone(ctx context.Context, pairs map[string]string) *Readiness {
	ready := newReadiness()
	go func() {
		ready.resolve(c.CloneSync(ctx, pairs))
	}()
	return ready
}

// CloneSync copies every source directory to its target and waits for all copies.
func (c Cloner) CloneSync(ctx context.Context, pairs map[string]string) error {
	g, ctx := errgroup.WithContext(ctx)
	if c.Limit > 0 {
		g.SetLimit(c.Limit)
	}
	for source, target := range pairs {
		source, target := source, target
		g.Go(func() error {
			if err := copyTree(ctx, source, target); err != nil {
				return fmt.Errorf("clone %s to %s: %w", source, target, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func copyTree(ctx context.Context, source, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", source)
	}

	return filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(target, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(dst, 0o755)
		case d.Type().IsRegular():
			return copyFile(path, dst)
		default:
			// Symlinks and devices are not part of world templates.
			return nil
		}
	})
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	_, err = io.Copy(out, in)
	return err
}
