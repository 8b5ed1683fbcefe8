// Package exiftest builds small images carrying EXIF date tags for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// Tags holds the date values to embed. Unset fields are omitted; a field set
// to a pointer to "" is written as an empty ASCII tag.
type Tags struct {
	DateTimeOriginal *string
	DateTime         *string
}

// S returns a pointer to s.
func S(s string) *string { return &s }

const (
	tagDateTime         = 0x0132
	tagExifIFDPointer   = 0x8769
	tagDateTimeOriginal = 0x9003

	typeASCII = 2
	typeLong  = 4
)

type entry struct {
	tag  uint16
	typ  uint16
	data []byte // ASCII payload; nil for LONG
	long uint32
}

// TIFFHeader returns a big-endian TIFF structure holding the tags, as it
// appears after the "Exif\0\0" marker of an APP1 segment.
func TIFFHeader(tags Tags) []byte {
	var ifd0, sub []entry
	if tags.DateTime != nil {
		ifd0 = append(ifd0, entry{tag: tagDateTime, typ: typeASCII, data: ascii(*tags.DateTime)})
	}
	if tags.DateTimeOriginal != nil {
		sub = append(sub, entry{tag: tagDateTimeOriginal, typ: typeASCII, data: ascii(*tags.DateTimeOriginal)})
	}

	ifd0Size := ifdSize(len(ifd0) + boolInt(len(sub) > 0))
	subOff := uint32(8 + ifd0Size)
	dataOff := subOff
	if len(sub) > 0 {
		dataOff += uint32(ifdSize(len(sub)))
	}
	if len(sub) > 0 {
		ifd0 = append(ifd0, entry{tag: tagExifIFDPointer, typ: typeLong, long: subOff})
	}

	var head, data bytes.Buffer
	head.WriteString("MM")
	put16(&head, 42)
	put32(&head, 8)

	writeIFD := func(entries []entry) {
		put16(&head, uint16(len(entries)))
		for _, e := range entries {
			put16(&head, e.tag)
			put16(&head, e.typ)
			if e.typ == typeLong {
				put32(&head, 1)
				put32(&head, e.long)
				continue
			}
			put32(&head, uint32(len(e.data)))
			if len(e.data) <= 4 {
				var inline [4]byte
				copy(inline[:], e.data)
				head.Write(inline[:])
				continue
			}
			put32(&head, dataOff+uint32(data.Len()))
			data.Write(e.data)
		}
		put32(&head, 0)
	}
	writeIFD(ifd0)
	if len(sub) > 0 {
		writeIFD(sub)
	}
	head.Write(data.Bytes())
	return head.Bytes()
}

// JPEG encodes a w×h JPEG with an APP1 EXIF segment holding tags.
func JPEG(t testing.TB, w, h int, tags Tags) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Fill(w, h, color.RGBA{40, 80, 120, 255}), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	raw := buf.Bytes()

	payload := append([]byte("Exif\x00\x00"), TIFFHeader(tags)...)
	var app1 bytes.Buffer
	app1.Write([]byte{0xff, 0xe1})
	put16(&app1, uint16(len(payload)+2))
	app1.Write(payload)

	out := make([]byte, 0, len(raw)+app1.Len())
	out = append(out, raw[:2]...)
	out = append(out, app1.Bytes()...)
	out = append(out, raw[2:]...)
	return out
}

// PNG encodes a w×h PNG without any metadata.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, Fill(w, h, color.RGBA{200, 30, 30, 255})); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// Fill returns a solid w×h image.
func Fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// WriteFile writes data to dir/rel, creating parent directories.
func WriteFile(t testing.TB, dir, rel string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func ascii(s string) []byte { return append([]byte(s), 0) }

func ifdSize(n int) int { return 2 + 12*n + 4 }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func put16(b *bytes.Buffer, v uint16) {
	var x [2]byte
	binary.BigEndian.PutUint16(x[:], v)
	b.Write(x[:])
}

func put32(b *bytes.Buffer, v uint32) {
	var x [4]byte
	binary.BigEndian.PutUint32(x[:], v)
	b.Write(x[:])
}
