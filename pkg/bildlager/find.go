package bildlager

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// FileEntry is a matched file found by Walk.
type FileEntry struct {
	// Path is the absolute path to the file.
	Path string
	// RelPath is slash separated and relative to the walk root.
	RelPath string
	// Ext is the lowercased extension without the leading dot.
	Ext string
}

// Stem returns the file name without its extension.
func (e FileEntry) Stem() string {
	base := filepath.Base(e.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WalkOpts controls which files Walk emits.
type WalkOpts struct {
	Extensions []string
	// SkipDirs are directory names that are never descended into.
	SkipDirs []string
}

// WalkStats summarizes a walk.
type WalkStats struct {
	Matched int
	// Unreadable lists directories that could not be read and were treated as empty.
	Unreadable []string
}

var errStopWalk = errors.New("stop walk")

// callbackError marks an error returned by the consumer rather than the filesystem.
type callbackError struct{ err error }

func (c callbackError) Error() string { return c.err.Error() }
func (c callbackError) Unwrap() error { return c.err }

// Ext returns the lowercased suffix after the final dot of name.
func Ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func allowed(exts []string, ext string) bool {
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.EqualFold(strings.TrimPrefix(e, "."), ext) {
			return true
		}
	}
	return false
}

// Walk calls fn for every regular file under root whose extension is allowed.
// Unreadable directories are skipped. An error from fn stops the walk and is returned.
func Walk(root string, o WalkOpts, fn func(FileEntry) error) (*WalkStats, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs: %w", err)
	}

	st := &WalkStats{}
	err = godirwalk.Walk(abs, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if path != abs && slices.Contains(o.SkipDirs, de.Name()) {
					klog.V(1).Infof("skipping %s", path)
					return godirwalk.SkipThis
				}
				return nil
			}

			if !de.IsRegular() {
				return nil
			}

			ext := Ext(de.Name())
			if !allowed(o.Extensions, ext) {
				klog.V(2).Infof("ignoring %s", path)
				return nil
			}

			rel, err := filepath.Rel(abs, path)
			if err != nil {
				return callbackError{err}
			}

			st.Matched++
			if err := fn(FileEntry{Path: path, RelPath: filepath.ToSlash(rel), Ext: ext}); err != nil {
				return callbackError{err}
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			var ce callbackError
			if errors.As(err, &ce) {
				return godirwalk.Halt
			}
			klog.Warningf("unable to read %s, treating as empty: %v", path, err)
			st.Unreadable = append(st.Unreadable, path)
			return godirwalk.SkipNode
		},
	})

	var ce callbackError
	if errors.As(err, &ce) {
		return st, ce.err
	}
	if err != nil {
		return st, fmt.Errorf("walk %s: %w", root, err)
	}
	return st, nil
}

// Files returns a lazy sequence of matching files under root.
// Walk errors end the sequence and are logged.
func Files(root string, o WalkOpts) iter.Seq[FileEntry] {
	return func(yield func(FileEntry) bool) {
		_, err := Walk(root, o, func(e FileEntry) error {
			if !yield(e) {
				return errStopWalk
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopWalk) {
			klog.Errorf("files: %v", err)
		}
	}
}

// EnsureRoot creates root and the scaffold subdirectories if root does not exist.
// It reports whether root was created.
func EnsureRoot(root string, scaffold ...string) (bool, error) {
	st, err := os.Stat(root)
	if err == nil {
		if !st.IsDir() {
			return false, fmt.Errorf("%s is not a directory", root)
		}
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat: %w", err)
	}

	klog.Warningf("%s does not exist, creating it", root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return false, fmt.Errorf("mkdir %s: %w", root, err)
	}

	for _, s := range scaffold {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(s)), 0o755); err != nil {
			return true, fmt.Errorf("mkdir %s: %w", s, err)
		}
	}
	return true, nil
}
