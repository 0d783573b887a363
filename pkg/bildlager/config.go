// Package bildlager optimizes a directory tree of website images in place.
package bildlager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Quality bounds accepted from callers.
const (
	MinQuality = 60
	MaxQuality = 100
)

// ThumbSpec is a named derivative size.
type ThumbSpec struct {
	Name      string `yaml:"name"`
	MaxWidth  int    `yaml:"max_width"`
	MaxHeight int    `yaml:"max_height"`
}

// Validate validates a derivative size.
func (t ThumbSpec) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.MaxWidth, validation.Required, validation.Min(1)),
		validation.Field(&t.MaxHeight, validation.Required, validation.Min(1)),
	)
}

// Bounds is a maximum width and height.
type Bounds struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Validate validates the bounds.
func (b Bounds) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Width, validation.Required, validation.Min(1)),
		validation.Field(&b.Height, validation.Required, validation.Min(1)),
	)
}

// Config holds configuration for an optimizer run.
type Config struct {
	Root        string      `yaml:"root"`
	Quality     int         `yaml:"quality"`
	Thumbnails  []ThumbSpec `yaml:"thumbnails"`
	MaxOriginal Bounds      `yaml:"max_original"`
	Extensions  []string    `yaml:"extensions"`
	ThumbDir    string      `yaml:"thumb_dir"`
	BackupDir   string      `yaml:"backup_dir"`
}

// DefaultConfig returns the stock website configuration.
func DefaultConfig() *Config {
	return &Config{
		Root:    "images",
		Quality: 85,
		Thumbnails: []ThumbSpec{
			{Name: "thumbnail", MaxWidth: 300, MaxHeight: 300},
			{Name: "medium", MaxWidth: 800, MaxHeight: 800},
			{Name: "large", MaxWidth: 1920, MaxHeight: 1080},
		},
		MaxOriginal: Bounds{Width: 1920, Height: 1080},
		Extensions:  []string{"jpg", "jpeg", "png"},
		ThumbDir:    "thumbs",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Quality, validation.Required, validation.Min(MinQuality), validation.Max(MaxQuality)),
		validation.Field(&c.Thumbnails, validation.By(uniqueNames)),
		validation.Field(&c.MaxOriginal),
		validation.Field(&c.Extensions, validation.Required),
		validation.Field(&c.ThumbDir, validation.Required),
		validation.Field(&c.BackupDir, validation.By(c.outsideRoot)),
	)
}

// uniqueNames rejects derivative sizes that would write to the same file.
func uniqueNames(v any) error {
	ts, _ := v.([]ThumbSpec)
	seen := map[string]bool{}
	for _, t := range ts {
		if seen[t.Name] {
			return fmt.Errorf("duplicate name %q", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// outsideRoot rejects a backup directory that the walk would descend into.
func (c *Config) outsideRoot(v any) error {
	dir, _ := v.(string)
	if dir == "" {
		return nil
	}
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if rel, err := filepath.Rel(root, abs); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.New("must not be inside root")
	}
	return nil
}

// LoadConfig overlays the YAML file at path onto the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(bs))), c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return c, nil
}

// WithQuality returns a copy of c using quality q.
func (c *Config) WithQuality(q int) *Config {
	n := *c
	n.Quality = q
	return &n
}
