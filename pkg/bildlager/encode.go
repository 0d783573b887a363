package bildlager

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/anthonynsimon/bild/imgio"
)

// Format is an output image format.
type Format int

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
)

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	}
	return "unknown"
}

// ErrUnsupportedFormat is returned for extensions the pipeline cannot encode.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatForExt maps a lowercased extension to a Format.
func FormatForExt(ext string) (Format, error) {
	switch ext {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// EncodeSettings describes how an image is written.
type EncodeSettings struct {
	Format  Format
	Quality int
}

// PNGLevel maps a quality percent to a zlib style compression level in [0,9].
func PNGLevel(quality int) int {
	l := (100 - quality) * 9 / 100
	return max(0, min(9, l))
}

// pngCompression maps a [0,9] level onto the levels image/png offers.
func pngCompression(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	}
	return png.BestCompression
}

// Encoder returns the bild encoder for these settings.
func (s EncodeSettings) Encoder() (imgio.Encoder, error) {
	switch s.Format {
	case FormatJPEG:
		return imgio.JPEGEncoder(max(1, min(100, s.Quality))), nil
	case FormatPNG:
		enc := &png.Encoder{CompressionLevel: pngCompression(PNGLevel(s.Quality))}
		return func(w io.Writer, img image.Image) error {
			return enc.Encode(w, img)
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.Format)
}

// save writes img to path using the encode settings.
func save(path string, img image.Image, s EncodeSettings) error {
	enc, err := s.Encoder()
	if err != nil {
		return err
	}
	if err := imgio.Save(path, img, enc); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
