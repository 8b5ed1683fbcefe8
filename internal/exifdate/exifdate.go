// Package exifdate pulls the capture date out of an image's EXIF block.
package exifdate

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"k8s.io/klog/v2"
)

var (
	// ErrNoTimestamp means neither date tag is present.
	ErrNoTimestamp = errors.New("no EXIF date")
	// ErrMalformedTimestamp means the winning tag is not "YYYY:MM:DD HH:MM:SS".
	ErrMalformedTimestamp = errors.New("malformed EXIF date")
)

// Layout is the EXIF date-time format.
const Layout = "2006:01:02 15:04:05"

// DisplayLayout is the format of the text drawn on the image.
const DisplayLayout = "2006-01-02"

// Tag is one entry of the lookup priority list.
type Tag struct {
	ID   uint16
	Name exif.FieldName
}

// Priority is the order tags are consulted in. The first non-empty one wins.
var Priority = []Tag{
	{ID: 36867, Name: exif.DateTimeOriginal},
	{ID: 306, Name: exif.DateTime},
}

// Tags is the lookup side of *exif.Exif.
type Tags interface {
	Get(name exif.FieldName) (*tiff.Tag, error)
}

// Extract decodes EXIF from r and returns the display date.
func Extract(r io.Reader) (string, error) {
	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		klog.V(2).Infof("exif decode: %v", err)
		return "", ErrNoTimestamp
	}
	return Lookup(x)
}

// Lookup walks Priority over tags and parses the first non-empty value.
func Lookup(tags Tags) (string, error) {
	for _, t := range Priority {
		tag, err := tags.Get(t.Name)
		if err != nil || tag == nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			klog.V(1).Infof("tag %d (%s) is not a string: %v", t.ID, t.Name, err)
			continue
		}
		s = clean(s)
		if s == "" {
			continue
		}
		return ParseDate(s)
	}
	return "", ErrNoTimestamp
}

// ParseDate converts "YYYY:MM:DD HH:MM:SS" to "YYYY-MM-DD". The time part
// must be valid even though it is dropped.
func ParseDate(raw string) (string, error) {
	t, err := time.Parse(Layout, clean(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
	}
	return t.Format(DisplayLayout), nil
}

func clean(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}
