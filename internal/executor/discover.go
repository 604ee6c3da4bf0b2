package executor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotDirectory is wrapped by DiscoveryError when the root is a file.
var ErrNotDirectory = errors.New("not a directory")

// DiscoveryError reports a root directory that is missing, unreadable or not
// a directory. It is fatal: no task runs.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover inputs under %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Discover walks root and returns one WorkItem per file whose name ends with
// ext. Items are deduplicated by base name only: when two directories hold a
// file of the same name, the first one visited wins and the rest are logged
// and dropped.
//
// Visit order is deterministic: the files of a directory, in lexical order,
// come before anything in its subdirectories, which are then visited in
// lexical order. Subdirectories that cannot be read are skipped with a
// warning.
func Discover(fsys afero.Fs, root, ext string) ([]WorkItem, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	info, err := fsys.Stat(root)
	if err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Root: root, Err: ErrNotDirectory}
	}

	d := &discoverer{fs: fsys, ext: ext, seen: make(map[string]string)}
	if err := d.walk(root, true); err != nil {
		return nil, &DiscoveryError{Root: root, Err: err}
	}
	if d.dropped > 0 {
		logWarnf("Discovery dropped %d input(s) whose file name was already taken", d.dropped)
	}
	logInfof("Discovered %d %s input(s) under %s", len(d.items), ext, root)
	return d.items, nil
}

type discoverer struct {
	fs      afero.Fs
	ext     string
	seen    map[string]string
	items   []WorkItem
	dropped int
}

func (d *discoverer) walk(dir string, isRoot bool) error {
	entries, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		if isRoot {
			return err
		}
		logWarnf("Skipping unreadable directory %s: %v", dir, err)
		return nil
	}

	var subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}
		if !entry.Mode().IsRegular() && entry.Mode()&os.ModeSymlink == 0 {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, d.ext) {
			continue
		}
		if first, dup := d.seen[name]; dup {
			d.dropped++
			logWarnf("Duplicate input name %s: keeping %s, skipping %s", name, first, path)
			continue
		}
		d.seen[name] = path
		d.items = append(d.items, NewWorkItem(path))
	}

	for _, sub := range subdirs {
		if err := d.walk(sub, false); err != nil {
			return err
		}
	}
	return nil
}
