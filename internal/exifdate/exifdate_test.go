package exifdate

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/rwcarlsen/goexif/exif"

	"photostamp/internal/exiftest"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2023:07:04 10:15:00", "2023-07-04"},
		{"1999:12:31 23:59:59", "1999-12-31"},
		{"2000:02:29 00:00:00", "2000-02-29"},
		{"2024:01:01 12:00:00\x00", "2024-01-01"},
		{" 2024:01:01 12:00:00 ", "2024-01-01"},
	}
	for _, tc := range tests {
		got, err := ParseDate(tc.in)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// Every well-formed value maps to its own date with the time dropped.
func TestParseDateAllMonths(t *testing.T) {
	for m := 1; m <= 12; m++ {
		for _, clock := range []string{"00:00:00", "13:37:59", "23:59:59"} {
			in := fmt.Sprintf("2021:%02d:15 %s", m, clock)
			want := fmt.Sprintf("2021-%02d-15", m)
			if got, err := ParseDate(in); err != nil || got != want {
				t.Errorf("ParseDate(%q) = %q, %v; want %q", in, got, err, want)
			}
		}
	}
}

func TestParseDateMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"2023-07-04 10:15:00",
		"2023:07:04",
		"2023:13:04 10:15:00",
		"2023:07:04 25:15:00",
		"0000:00:00 00:00:00",
		"2023:7:4 10:15:00",
		"yesterday",
	} {
		if _, err := ParseDate(in); !errors.Is(err, ErrMalformedTimestamp) {
			t.Errorf("ParseDate(%q) = %v, want ErrMalformedTimestamp", in, err)
		}
	}
}

func TestPriority(t *testing.T) {
	want := []Tag{{36867, exif.DateTimeOriginal}, {306, exif.DateTime}}
	if len(Priority) != len(want) {
		t.Fatalf("Priority has %d entries, want %d", len(Priority), len(want))
	}
	for i := range want {
		if Priority[i] != want[i] {
			t.Errorf("Priority[%d] = %v, want %v", i, Priority[i], want[i])
		}
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		tags exiftest.Tags
		want string
		err  error
	}{
		{
			name: "original wins over datetime",
			tags: exiftest.Tags{DateTimeOriginal: exiftest.S("2023:07:04 10:15:00"), DateTime: exiftest.S("2024:02:03 08:00:00")},
			want: "2023-07-04",
		},
		{
			name: "datetime only",
			tags: exiftest.Tags{DateTime: exiftest.S("2019:11:30 18:45:12")},
			want: "2019-11-30",
		},
		{
			name: "empty original falls through",
			tags: exiftest.Tags{DateTimeOriginal: exiftest.S(""), DateTime: exiftest.S("2020:05:06 07:08:09")},
			want: "2020-05-06",
		},
		{
			name: "malformed original does not fall through",
			tags: exiftest.Tags{DateTimeOriginal: exiftest.S("2020-05-06T07:08:09"), DateTime: exiftest.S("2020:05:06 07:08:09")},
			err:  ErrMalformedTimestamp,
		},
		{
			name: "both empty",
			tags: exiftest.Tags{DateTimeOriginal: exiftest.S(""), DateTime: exiftest.S("")},
			err:  ErrNoTimestamp,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Extract(bytes.NewReader(exiftest.JPEG(t, 16, 16, tc.tags)))
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("Extract() error = %v, want %v", err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Extract() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractFromTIFFStructure(t *testing.T) {
	raw := exiftest.TIFFHeader(exiftest.Tags{DateTime: exiftest.S("2018:03:14 15:09:26")})
	got, err := Extract(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got != "2018-03-14" {
		t.Errorf("Extract() = %q, want 2018-03-14", got)
	}
}

func TestExtractNoExif(t *testing.T) {
	if _, err := Extract(bytes.NewReader(exiftest.PNG(t, 8, 8))); !errors.Is(err, ErrNoTimestamp) {
		t.Errorf("Extract(png) error = %v, want ErrNoTimestamp", err)
	}
	if _, err := Extract(bytes.NewReader(nil)); !errors.Is(err, ErrNoTimestamp) {
		t.Errorf("Extract(empty) error = %v, want ErrNoTimestamp", err)
	}
}
