// Package registry discovers named engine configurations ("profiles") in a
// directory.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hy2core/internal/common/fsutil"
	"hy2core/pkg/types"
)

// ErrProfileNotFound is returned by Read for unknown names.
var ErrProfileNotFound = errors.New("profile not found")

// IsProfileNotFound reports whether err is ErrProfileNotFound.
func IsProfileNotFound(err error) bool { return errors.Is(err, ErrProfileNotFound) }

// LoadDir scans a directory for *.json files. A profile's name is the file
// name without extension; Path is absolute. Results are sorted by name.
func LoadDir(dir string) ([]types.Profile, error) {
	abs, err := absDir(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []types.Profile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		p := types.Profile{Name: strings.TrimSuffix(name, ext), Path: filepath.Join(abs, name)}
		if fi, err := e.Info(); err == nil {
			p.Size = fi.Size()
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Dir is a profile source rooted at one directory.
type Dir struct {
	Path string
}

// List returns the profiles currently in the directory.
func (d Dir) List() ([]types.Profile, error) { return LoadDir(d.Path) }

// Read returns the contents of the named profile.
func (d Dir) Read(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	profiles, err := d.List()
	if err != nil {
		return "", err
	}
	for _, p := range profiles {
		if p.Name == name {
			b, err := os.ReadFile(p.Path)
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrProfileNotFound, name)
}

func absDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("profiles directory not configured")
	}
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	return abs, nil
}
