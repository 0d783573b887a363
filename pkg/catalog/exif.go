package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var exifDate = "2006:01:02 15:04:05"

// Placeholders for EXIF fields that are missing from an otherwise tagged file.
const (
	UnknownCamera   = "未知相机"
	UnknownLens     = "未知镜头"
	UnknownAperture = "f/未知"
	Unknown         = "未知"
)

// ExifInfo is the capture data shown next to a photograph.
type ExifInfo struct {
	Camera   string `json:"camera"`
	Lens     string `json:"lens"`
	Aperture string `json:"aperture"`
	Shutter  string `json:"shutter"`
	ISO      string `json:"iso"`
	Focal    string `json:"focal"`
}

// RawExif holds tag values as read from a file. Empty strings and zero
// numbers mean the tag is absent.
type RawExif struct {
	Model        string
	LensModel    string
	FNumber      float64
	ExposureTime string
	ISO          string
	FocalLength  string
	Taken        time.Time
}

// ExifReader reads embedded capture metadata.
// It returns nil, nil for files that carry no metadata at all.
type ExifReader interface {
	Read(path string) (*RawExif, error)
}

// FormatShutterSpeed renders an exposure time such as "1/250", "0.004" or "2".
func FormatShutterSpeed(raw string) string {
	if strings.Contains(raw, "/") {
		return raw + "s"
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return raw
	}
	if v >= 1 {
		return strconv.FormatFloat(v, 'f', -1, 64) + "s"
	}
	return fmt.Sprintf("1/%ds", int(math.Round(1/v)))
}

// FormatFocalLength renders a focal length such as "50/1" or "35".
func FormatFocalLength(raw string) string {
	if n, d, ok := strings.Cut(raw, "/"); ok {
		num, nerr := strconv.ParseFloat(strings.TrimSpace(n), 64)
		den, derr := strconv.ParseFloat(strings.TrimSpace(d), 64)
		if nerr == nil && derr == nil && den > 0 {
			return fmt.Sprintf("%dmm", int(math.Round(num/den)))
		}
	}
	return raw + "mm"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// resolveExif maps raw tags onto ExifInfo, using placeholders for missing tags.
func resolveExif(r *RawExif) *ExifInfo {
	ei := &ExifInfo{
		Camera:   orDefault(r.Model, UnknownCamera),
		Lens:     orDefault(r.LensModel, UnknownLens),
		Aperture: UnknownAperture,
		Shutter:  Unknown,
		ISO:      orDefault(r.ISO, Unknown),
		Focal:    Unknown,
	}
	if r.FNumber > 0 {
		ei.Aperture = fmt.Sprintf("f/%.1f", r.FNumber)
	}
	if r.ExposureTime != "" {
		ei.Shutter = FormatShutterSpeed(r.ExposureTime)
	}
	if r.FocalLength != "" {
		ei.Focal = FormatFocalLength(r.FocalLength)
	}
	return ei
}

// synthesizeExif makes up plausible capture data for a photograph without any.
func synthesizeExif(src Source, sub string) *ExifInfo {
	p := lookup(Photography, sub)
	return &ExifInfo{
		Camera:   pick(src, p.cameras),
		Lens:     pick(src, p.lenses),
		Aperture: pick(src, apertures),
		Shutter:  pick(src, shutters),
		ISO:      pick(src, isos),
		Focal:    pick(src, focals),
	}
}
