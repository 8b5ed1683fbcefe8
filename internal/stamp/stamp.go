// Package stamp runs the date watermark over every resolved input file.
package stamp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"photostamp/internal/config"
	"photostamp/internal/exifdate"
	"photostamp/internal/output"
	"photostamp/internal/render"
	"photostamp/internal/walk"
)

// ErrUnsupportedImage means the file could not be decoded as an image.
var ErrUnsupportedImage = errors.New("unsupported image format")

// Task is one file to stamp.
type Task struct {
	Source string
	Dest   string
}

// Summary counts the outcome of a run.
type Summary struct {
	Found   int
	Written int
	Skipped int // no usable date
	Failed  int // unreadable, undecodable or unwritable
}

// Stamper holds the per-run state shared read-only by every file.
type Stamper struct {
	cfg  *config.Config
	face render.FaceFunc
	font string
	// out receives one "wrote" line per stamped file.
	out func(format string, args ...any)
}

// New resolves the font once and returns a Stamper for cfg.
func New(cfg *config.Config) *Stamper {
	face, name := render.Resolve(render.Chain(cfg.Style.FontPath), cfg.Style.FontSize)
	klog.V(1).Infof("using font %s at %dpx", name, cfg.Style.FontSize)
	return &Stamper{
		cfg:  cfg,
		face: face,
		font: name,
		out:  func(format string, args ...any) { fmt.Printf(format, args...) },
	}
}

// Font names the font that was resolved.
func (s *Stamper) Font() string { return s.font }

// Tasks resolves path and maps every image to its destination.
func Tasks(path string) (*walk.Source, []Task, error) {
	// The output root of a directory is its sibling, so it can only show
	// up inside the walk when the input is a filesystem root.
	var skip []string
	if abs, err := filepath.Abs(path); err == nil {
		skip = append(skip, output.Root(abs))
	}

	src, err := walk.Resolve(path, skip...)
	if err != nil {
		return nil, nil, err
	}

	root := output.Root(src.Base)
	tasks := make([]Task, 0, len(src.Files))
	for _, f := range src.Files {
		dest, err := output.Dest(root, src.Base, f)
		if err != nil {
			return nil, nil, err
		}
		tasks = append(tasks, Task{Source: f, Dest: dest})
	}
	return src, tasks, nil
}

// Run stamps every image under path. Only problems with path itself or with
// creating the output root are returned; per-file problems are logged and
// counted.
func (s *Stamper) Run(ctx context.Context, path string) (Summary, error) {
	src, tasks, err := Tasks(path)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Found: len(tasks)}
	if len(tasks) == 0 {
		if src.Dir {
			klog.Infof("no supported images found in %s", path)
		}
		return sum, nil
	}

	root := output.Root(src.Base)
	if err := output.Prepare(root); err != nil {
		return sum, err
	}
	klog.V(1).Infof("writing %d images to %s", len(tasks), root)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Jobs)
	for _, t := range tasks {
		if ctx.Err() != nil {
			break
		}
		t := t
		g.Go(func() error {
			err := s.Process(t)
			mu.Lock()
			defer mu.Unlock()
			s.record(&sum, t, err)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("interrupted after %d of %d files: %w", sum.Written+sum.Skipped+sum.Failed, sum.Found, err)
	}
	return sum, nil
}

func (s *Stamper) record(sum *Summary, t Task, err error) {
	switch {
	case err == nil:
		sum.Written++
		s.out("wrote %s\n", t.Dest)
	case errors.Is(err, exifdate.ErrNoTimestamp), errors.Is(err, exifdate.ErrMalformedTimestamp):
		sum.Skipped++
		klog.Warningf("skipping %s: %v", t.Source, err)
	default:
		sum.Failed++
		klog.Warningf("failed %s: %v", t.Source, err)
	}
}

// Process stamps a single file: read, extract date, decode, draw, write.
func (s *Stamper) Process(t Task) error {
	data, err := os.ReadFile(t.Source)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	date, err := exifdate.Extract(bytes.NewReader(data))
	if err != nil {
		return err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	face := s.face()
	defer face.Close()
	stamped := render.Draw(img, date, face, s.cfg.Style)
	klog.V(2).Infof("%s: drew %q at %s", t.Source, date, s.cfg.Style.Position)

	return output.Write(stamped, t.Dest)
}
