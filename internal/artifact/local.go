package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// LocalStore keeps artifacts under a shared directory, one subdirectory per
// artifact name. This is the backend for runners that share a filesystem
// with the upstream build (and for tests).
type LocalStore struct {
	// Root is the shared artifact directory.
	Root string
}

// NewLocalStore creates a LocalStore rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("artifact root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &LocalStore{Root: dir}, nil
}

// Fetch copies the named artifact's files into dest.
func (s *LocalStore) Fetch(ctx context.Context, name, dest string) error {
	src := filepath.Join(s.Root, name)
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return &NotFoundError{Name: name}
	}
	if err != nil {
		return fmt.Errorf("stat artifact %q: %w", name, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("artifact %q is not a directory", name)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

// Publish copies the files under dir into the artifact's subdirectory.
// Hidden entries are pruned unless opts.IncludeHidden is set; when patterns
// are given, only matching relative paths are uploaded.
func (s *LocalStore) Publish(ctx context.Context, name, dir string, opts PublishOptions) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat source dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %q is not a directory", dir)
	}

	target := filepath.Join(s.Root, name)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if !opts.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(target, rel), 0o755)
		}
		match, err := matchesAny(rel, opts.Patterns)
		if err != nil {
			return err
		}
		if !match {
			return nil
		}
		return copyFile(path, filepath.Join(target, rel))
	})
}

// matchesAny reports whether rel matches any pattern. No patterns means
// everything matches.
func matchesAny(rel string, patterns []string) (bool, error) {
	if len(patterns) == 0 {
		return true, nil
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
