package output

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"photostamp/internal/exiftest"
)

func TestRoot(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"/home/me/Photos", "/home/me/Photos_watermark"},
		{"/home/me/Photos/", "/home/me/Photos_watermark"},
		{"/Trip", "/Trip_watermark"},
		{"/", "/root_watermark"},
	}
	for _, tc := range tests {
		if got := Root(filepath.FromSlash(tc.base)); got != filepath.FromSlash(tc.want) {
			t.Errorf("Root(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestDest(t *testing.T) {
	base := filepath.FromSlash("/p/Trip")
	root := Root(base)
	tests := []struct {
		src  string
		want string
	}{
		{"/p/Trip/a.jpg", "/p/Trip_watermark/a.jpg"},
		{"/p/Trip/sub/b.png", "/p/Trip_watermark/sub/b.png"},
		{"/p/Trip/x/y/IMG_0001.JPG", "/p/Trip_watermark/x/y/IMG_0001.JPG"},
	}
	for _, tc := range tests {
		got, err := Dest(root, base, filepath.FromSlash(tc.src))
		if err != nil {
			t.Fatalf("Dest(%q): %v", tc.src, err)
		}
		if got != filepath.FromSlash(tc.want) {
			t.Errorf("Dest(%q) = %q, want %q", tc.src, got, tc.want)
		}
	}

	if _, err := Dest(root, base, filepath.FromSlash("/p/Other/a.jpg")); err == nil {
		t.Error("Dest accepted a file outside the base directory")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	img := exiftest.Fill(37, 23, color.RGBA{10, 200, 30, 255})
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.tif", "nested/e.TIFF"} {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(dir, "out", filepath.FromSlash(name))
			if err := Write(img, dest); err != nil {
				t.Fatalf("Write: %v", err)
			}
			back, err := imaging.Open(dest)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			if back.Bounds().Size() != img.Bounds().Size() {
				t.Errorf("size = %v, want %v", back.Bounds().Size(), img.Bounds().Size())
			}
		})
	}
}

func TestWriteFormatFollowsExtension(t *testing.T) {
	img := exiftest.Fill(8, 8, color.RGBA{255, 255, 255, 255})
	dir := t.TempDir()

	magic := map[string][]byte{
		"x.jpg":  {0xff, 0xd8},
		"x.png":  []byte("\x89PNG"),
		"x.tiff": []byte("II*\x00"),
	}
	for name, want := range magic {
		dest := filepath.Join(dir, name)
		if err := Write(img, dest); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
		got, err := os.ReadFile(dest)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(got, want) {
			t.Errorf("%s starts with % x, want % x", name, got[:len(want)], want)
		}
	}
}

func TestWriteOverwrites(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(dest, bytes.Repeat([]byte("stale"), 1000), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Write(image.NewRGBA(image.Rect(0, 0, 4, 4)), dest); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := imaging.Open(dest); err != nil {
		t.Errorf("overwritten file does not decode: %v", err)
	}
}

func TestWriteErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := exiftest.WriteFile(t, dir, "file", []byte("x"))
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))

	for _, dest := range []string{
		filepath.Join(blocker, "a.jpg"),
		filepath.Join(dir, "a.webp"),
	} {
		if err := Write(img, dest); !errors.Is(err, ErrWrite) {
			t.Errorf("Write(%s) = %v, want ErrWrite", dest, err)
		}
	}

	if err := Prepare(filepath.Join(blocker, "out")); !errors.Is(err, ErrWrite) {
		t.Errorf("Prepare under a file = %v, want ErrWrite", err)
	}
}
