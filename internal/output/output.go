// Package output decides where stamped images go and writes them.
package output

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrWrite wraps every failure to create or write a destination.
var ErrWrite = errors.New("write failed")

// Suffix is appended to the base directory name to form the output root.
const Suffix = "_watermark"

// JPEGQuality is used when re-encoding JPEG output.
const JPEGQuality = 95

// Root returns the output root for base: a sibling directory named
// "<base>_watermark". A filesystem root has no parent, so its output root
// is placed inside it instead.
func Root(base string) string {
	base = filepath.Clean(base)
	parent := filepath.Dir(base)
	name := filepath.Base(base)
	if parent == base || name == string(filepath.Separator) || name == "." {
		return filepath.Join(base, "root"+Suffix)
	}
	return filepath.Join(parent, name+Suffix)
}

// Dest mirrors src, which must live under base, into root.
func Dest(root, base, src string) (string, error) {
	rel, err := filepath.Rel(base, src)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", src, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", src, base)
	}
	return filepath.Join(root, rel), nil
}

// Prepare creates the output root.
func Prepare(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("%w: create output root: %w", ErrWrite, err)
	}
	return nil
}

// Write encodes img to dest in the format its extension names, creating
// parent directories and replacing any existing file.
func Write(img image.Image, dest string) error {
	format, err := imaging.FormatFromFilename(dest)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if err := imaging.Encode(f, img, format, imaging.JPEGQuality(JPEGQuality)); err != nil {
		f.Close()
		return fmt.Errorf("%w: encode %s: %w", ErrWrite, dest, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
