package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/image/colornames"
	"k8s.io/klog/v2"
)

// Position is where the date is anchored on the image.
type Position string

const (
	TopLeft     Position = "top-left"
	TopRight    Position = "top-right"
	Center      Position = "center"
	BottomLeft  Position = "bottom-left"
	BottomRight Position = "bottom-right"
)

// Positions lists every accepted position keyword.
var Positions = []Position{TopLeft, TopRight, Center, BottomLeft, BottomRight}

const (
	DefaultFontSize = 36
	DefaultColor    = "#FFFFFF"
	DefaultPosition = BottomRight
)

// White is used when a color cannot be parsed.
var White = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

var (
	ErrBadColor    = errors.New("invalid color")
	ErrBadPosition = errors.New("invalid position")
	ErrBadFontSize = errors.New("invalid font size")
)

// Style controls how the date is drawn. It is shared read-only by every file in a run.
type Style struct {
	FontSize int
	Color    color.NRGBA
	Position Position
	FontPath string
}

// Config is the full run configuration.
type Config struct {
	Style Style
	Jobs  int
}

// Keys read from viper. They match the CLI flag names.
const (
	KeyFontSize = "font-size"
	KeyColor    = "color"
	KeyPosition = "position"
	KeyFontPath = "font-path"
	KeyJobs     = "jobs"
)

// SetDefaults registers defaults for every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyFontSize, DefaultFontSize)
	v.SetDefault(KeyColor, DefaultColor)
	v.SetDefault(KeyPosition, string(DefaultPosition))
	v.SetDefault(KeyFontPath, "")
	v.SetDefault(KeyJobs, 1)
}

// Load builds a Config from v. A color that cannot be parsed is replaced by
// white with a warning; a bad position or font size is an error.
func Load(v *viper.Viper) (*Config, error) {
	size := v.GetInt(KeyFontSize)
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d (must be positive)", ErrBadFontSize, size)
	}

	pos, err := ParsePosition(v.GetString(KeyPosition))
	if err != nil {
		return nil, err
	}

	raw := v.GetString(KeyColor)
	c, err := ParseColor(raw)
	if err != nil {
		klog.Warningf("color %q cannot be parsed, using white: %v", raw, err)
		c = White
	}

	jobs := v.GetInt(KeyJobs)
	if jobs < 1 {
		jobs = 1
	}

	return &Config{
		Style: Style{
			FontSize: size,
			Color:    c,
			Position: pos,
			FontPath: strings.TrimSpace(v.GetString(KeyFontPath)),
		},
		Jobs: jobs,
	}, nil
}

// ParsePosition validates a position keyword.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Positions {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want one of %v)", ErrBadPosition, s, Positions)
}

// ParseColor resolves a hex string or an SVG color name to NRGBA.
//
// Hex forms are #RGB, #RRGGBB and #AARRGGBB. Eight digits always put alpha
// first. Names are matched case-insensitively with spaces ignored, so
// "Light Blue" and "lightblue" are the same color.
func ParseColor(s string) (color.NRGBA, error) {
	c := strings.TrimSpace(s)
	if strings.HasPrefix(c, "#") {
		return parseHex(c[1:])
	}

	name := strings.ToLower(strings.ReplaceAll(c, " ", ""))
	if rgba, ok := colornames.Map[name]; ok {
		return color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: 0xff}, nil
	}
	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
}

func parseHex(h string) (color.NRGBA, error) {
	switch len(h) {
	case 3:
		v, err := strconv.ParseUint(h, 16, 16)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: #%s", ErrBadColor, h)
		}
		r, g, b := uint8(v>>8&0xf), uint8(v>>4&0xf), uint8(v&0xf)
		return color.NRGBA{R: r * 0x11, G: g * 0x11, B: b * 0x11, A: 0xff}, nil
	case 6:
		v, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: #%s", ErrBadColor, h)
		}
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	case 8:
		v, err := strconv.ParseUint(h, 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: #%s", ErrBadColor, h)
		}
		return color.NRGBA{A: uint8(v >> 24), R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
	}
	return color.NRGBA{}, fmt.Errorf("%w: #%s has %d hex digits", ErrBadColor, h, len(h))
}
