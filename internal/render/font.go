package render

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"k8s.io/klog/v2"
)

// FaceFunc returns a fresh face. Faces are not safe for concurrent use, so
// every file being drawn gets its own.
type FaceFunc func() font.Face

// Loader is one attempt in the font fallback chain.
type Loader struct {
	Name string
	Load func(size float64) (FaceFunc, error)
}

// Chain is the ordered list of loaders tried for a configured font path: the
// file itself, then the bundled Go Regular font.
func Chain(fontPath string) []Loader {
	var ls []Loader
	if fontPath != "" {
		ls = append(ls, Loader{Name: fontPath, Load: func(size float64) (FaceFunc, error) {
			b, err := os.ReadFile(resolveFontPath(fontPath))
			if err != nil {
				return nil, fmt.Errorf("read font: %w", err)
			}
			return scalable(b, size)
		}})
	}
	ls = append(ls, Loader{Name: "goregular", Load: func(size float64) (FaceFunc, error) {
		return scalable(goregular.TTF, size)
	}})
	return ls
}

// Fixed is the last resort: a 7x13 bitmap face that cannot scale.
func Fixed() font.Face { return basicfont.Face7x13 }

// Resolve returns the first loader in ls that succeeds at size, or the fixed
// face if none do. A failing user-supplied font is reported once.
func Resolve(ls []Loader, size int) (FaceFunc, string) {
	for i, l := range ls {
		ff, err := l.Load(float64(size))
		if err == nil {
			return ff, l.Name
		}
		if i == 0 && len(ls) > 1 {
			klog.Warningf("unable to load font %s, falling back to %s: %v", l.Name, ls[1].Name, err)
			continue
		}
		klog.V(1).Infof("font %s unavailable: %v", l.Name, err)
	}
	return Fixed, "basicfont"
}

// scalable parses b as a single font or the first font of a collection.
func scalable(b []byte, size float64) (FaceFunc, error) {
	f, err := opentype.Parse(b)
	if err != nil {
		c, cerr := opentype.ParseCollection(b)
		if cerr != nil {
			return nil, fmt.Errorf("parse font: %w", err)
		}
		if c.NumFonts() == 0 {
			return nil, fmt.Errorf("parse font: empty collection")
		}
		if f, err = c.Font(0); err != nil {
			return nil, fmt.Errorf("parse font collection: %w", err)
		}
	}

	opts := &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull}
	// Build one face up front so a font that parses but cannot render fails here.
	face, err := opentype.NewFace(f, opts)
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	face.Close()

	return func() font.Face { return mustFace(f, opts) }, nil
}

func mustFace(f *sfnt.Font, opts *opentype.FaceOptions) font.Face {
	face, err := opentype.NewFace(f, opts)
	if err != nil {
		// Already succeeded once with the same arguments.
		panic(fmt.Sprintf("opentype.NewFace: %v", err))
	}
	return face
}

// resolveFontPath looks a bare file name such as "arial.ttf" up in the
// platform font directories. Anything else is returned unchanged.
func resolveFontPath(p string) string {
	if filepath.Base(p) != p || filepath.IsAbs(p) {
		return p
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	if found := findSystemFont(p); found != "" {
		klog.V(1).Infof("using system font %s", found)
		return found
	}
	return p
}

func fontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		return []string{`C:\Windows\Fonts`}
	case "darwin":
		return []string{"/System/Library/Fonts", "/Library/Fonts", filepath.Join(home, "Library/Fonts")}
	default:
		return []string{"/usr/share/fonts", "/usr/local/share/fonts", filepath.Join(home, ".fonts"), filepath.Join(home, ".local/share/fonts")}
	}
}

// findSystemFont searches the font directories, one level deep, for filename
// ignoring case.
func findSystemFont(filename string) string {
	for _, d := range fontDirs() {
		if p := findIn(d, filename, 1); p != "" {
			return p
		}
	}
	return ""
}

func findIn(dir, filename string, depth int) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), filename) {
			return filepath.Join(dir, e.Name())
		}
	}
	if depth == 0 {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() {
			if p := findIn(filepath.Join(dir, e.Name()), filename, depth-1); p != "" {
				return p
			}
		}
	}
	return ""
}
