package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"k8s.io/klog/v2"
)

// NativeReader reads EXIF in-process.
type NativeReader struct{}

// Read implements ExifReader.
func (NativeReader) Read(path string) (*RawExif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		klog.V(1).Infof("no exif in %s: %v", path, err)
		return nil, nil
	}

	r := &RawExif{
		Model:        tagString(x, exif.Model),
		LensModel:    tagString(x, exif.LensModel),
		ExposureTime: tagRat(x, exif.ExposureTime),
		FocalLength:  tagRat(x, exif.FocalLength),
	}

	if t, err := x.Get(exif.FNumber); err == nil {
		if n, d, err := t.Rat2(0); err == nil && d != 0 {
			r.FNumber = float64(n) / float64(d)
		}
	}
	if t, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if v, err := t.Int(0); err == nil {
			r.ISO = strconv.Itoa(v)
		}
	}
	if taken, err := x.DateTime(); err == nil {
		r.Taken = taken
	}
	return r, nil
}

func tagString(x *exif.Exif, name exif.FieldName) string {
	t, err := x.Get(name)
	if err != nil {
		return ""
	}
	if t.Format() != tiff.StringVal {
		return ""
	}
	s, err := t.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// tagRat renders a rational tag as "n/d", or "n" for whole numbers.
func tagRat(x *exif.Exif, name exif.FieldName) string {
	t, err := x.Get(name)
	if err != nil {
		return ""
	}
	n, d, err := t.Rat2(0)
	if err != nil || d == 0 {
		return ""
	}
	if d == 1 {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%d/%d", n, d)
}
