// Package walk resolves the input path into the list of images to stamp.
package walk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

var (
	ErrPathNotFound    = errors.New("path not found")
	ErrUnsupportedPath = errors.New("path is neither a file nor a directory")
)

// Extensions are the file extensions picked up when walking a directory.
var Extensions = []string{"jpg", "jpeg", "png", "tif", "tiff"}

// Source is a resolved input.
type Source struct {
	// Base is the directory whose name the output root is derived from and
	// that output paths are made relative to.
	Base string
	// Files are absolute paths in walk order.
	Files []string
	// Dir reports whether the input was a directory.
	Dir bool
}

// IsImage reports whether path has one of Extensions, ignoring case.
func IsImage(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, e := range Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// Resolve classifies path. A file is returned as is; a directory is walked
// recursively in sorted order, never entering any directory listed in skip.
func Resolve(path string, skip ...string) (*Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("abs %q: %w", path, err)
	}

	fi, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	switch {
	case fi.Mode().IsRegular():
		return &Source{Base: filepath.Dir(abs), Files: []string{abs}}, nil
	case fi.IsDir():
		files, err := find(abs, skip)
		if err != nil {
			return nil, err
		}
		return &Source{Base: abs, Files: files, Dir: true}, nil
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedPath, path, fi.Mode().Type())
}

func find(root string, skip []string) ([]string, error) {
	skipped := map[string]bool{}
	for _, s := range skip {
		if a, err := filepath.Abs(s); err == nil {
			skipped[a] = true
		}
	}

	found := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == root {
				return nil
			}
			if skipped[path] {
				klog.V(1).Infof("skipping output directory %s", path)
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				return nil
			}
			if !IsImage(path) {
				return nil
			}
			if de.IsSymlink() {
				fi, err := os.Stat(path)
				if err != nil || !fi.Mode().IsRegular() {
					klog.V(1).Infof("skipping symlink %s", path)
					return nil
				}
			} else if !de.IsRegular() {
				return nil
			}
			klog.V(2).Infof("found %s", path)
			found = append(found, path)
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Warningf("skipping %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return found, nil
}
