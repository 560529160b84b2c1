// Package config holds the settings of the vkquad command. Settings are read
// from a TOML or YAML file, chosen by extension, and then overridden by
// command line flags.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/celer/vkquad"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Quad is the rectangle drawn, in normalized device coordinates
type Quad struct {
	X float32 `toml:"x" yaml:"x"`
	Y float32 `toml:"y" yaml:"y"`
	W float32 `toml:"w" yaml:"w"`
	H float32 `toml:"h" yaml:"h"`
}

type Config struct {
	// Backend is "soft" or "vulkan"
	Backend string `toml:"backend" yaml:"backend"`
	// Image is the texture to upload, a built in test pattern when empty
	Image string `toml:"image" yaml:"image"`
	// MaxSide scales large images down before upload, 0 keeps the size
	MaxSide int `toml:"max_side" yaml:"max_side"`
	// Out is where the read back texture is written as PNG, if set
	Out string `toml:"out" yaml:"out"`

	// RowAlignment overrides the device row pitch alignment when non zero
	RowAlignment uint64 `toml:"row_alignment" yaml:"row_alignment"`
	Flip         bool   `toml:"flip" yaml:"flip"`
	Filter       string `toml:"filter" yaml:"filter"`
	Wrap         string `toml:"wrap" yaml:"wrap"`

	Quad   Quad `toml:"quad" yaml:"quad"`
	Frames int  `toml:"frames" yaml:"frames"`

	LogLevel   string `toml:"log_level" yaml:"log_level"`
	Validation bool   `toml:"validation" yaml:"validation"`
	// Device picks a Vulkan physical device by name
	Device string `toml:"device" yaml:"device"`
}

// Defaults is the configuration used when no file is given
func Defaults() Config {
	return Config{
		Backend:  "soft",
		Filter:   "nearest",
		Wrap:     "repeat",
		Quad:     Quad{X: -0.5, Y: -0.5, W: 1, H: 1},
		Frames:   3,
		LogLevel: "info",
	}
}

// Load reads file on top of Defaults. Fields missing from the file keep
// their default.
func Load(file string) (Config, error) {
	c := Defaults()
	b, err := os.ReadFile(file)
	if err != nil {
		return c, err
	}

	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".toml":
		d := toml.NewDecoder(bytes.NewReader(b))
		d.DisallowUnknownFields()
		err = d.Decode(&c)
	case ".yaml", ".yml":
		d := yaml.NewDecoder(bytes.NewReader(b))
		d.KnownFields(true)
		err = d.Decode(&c)
	default:
		return c, fmt.Errorf("config %s: unknown format %q, want .toml, .yaml or .yml", file, ext)
	}
	if err != nil {
		return c, fmt.Errorf("config %s: %w", file, err)
	}
	return c, c.Validate()
}

// Validate checks the enumerated settings
func (c Config) Validate() error {
	if c.Backend != "soft" && c.Backend != "vulkan" {
		return fmt.Errorf("backend %q, want soft or vulkan", c.Backend)
	}
	if _, err := c.SamplerInfo(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Frames < 0 {
		return fmt.Errorf("frames %d is negative", c.Frames)
	}
	if c.Quad.W <= 0 || c.Quad.H <= 0 {
		return fmt.Errorf("quad %gx%g is empty", c.Quad.W, c.Quad.H)
	}
	return nil
}

// SamplerInfo converts Filter and Wrap
func (c Config) SamplerInfo() (vkquad.SamplerInfo, error) {
	var si vkquad.SamplerInfo
	switch c.Filter {
	case "nearest", "":
		si.Filter = vkquad.FilterNearest
	case "linear":
		si.Filter = vkquad.FilterLinear
	default:
		return si, fmt.Errorf("filter %q, want nearest or linear", c.Filter)
	}
	switch c.Wrap {
	case "repeat", "":
		si.AddressMode = vkquad.AddressModeRepeat
	case "mirror":
		si.AddressMode = vkquad.AddressModeMirroredRepeat
	case "clamp":
		si.AddressMode = vkquad.AddressModeClampToEdge
	case "border":
		si.AddressMode = vkquad.AddressModeClampToBorder
	default:
		return si, fmt.Errorf("wrap %q, want repeat, mirror, clamp or border", c.Wrap)
	}
	return si, nil
}

// Orientation converts Flip
func (c Config) Orientation() vkquad.Orientation {
	if c.Flip {
		return vkquad.FlipVertical
	}
	return vkquad.TopDown
}

// UploadOptions collects the settings Upload takes. The image is always made
// readable so it can be verified afterwards.
func (c Config) UploadOptions() (vkquad.UploadOptions, error) {
	si, err := c.SamplerInfo()
	if err != nil {
		return vkquad.UploadOptions{}, err
	}
	return vkquad.UploadOptions{
		MinRowAlignment: c.RowAlignment,
		Orientation:     c.Orientation(),
		Sampler:         si,
		Readable:        true,
	}, nil
}

// Level parses LogLevel
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

// Rect returns the configured rectangle
func (c Config) Rect() vkquad.Quad {
	return vkquad.Quad{X: c.Quad.X, Y: c.Quad.Y, W: c.Quad.W, H: c.Quad.H}
}
