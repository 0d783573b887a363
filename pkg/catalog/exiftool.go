package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// exifKeys are tags whose presence means the file carries capture metadata.
var exifKeys = []string{"Make", "Model", "ExposureTime", "FNumber", "ISO", "FocalLength", "DateTimeOriginal"}

// ExiftoolReader reads EXIF through a long-running exiftool process.
type ExiftoolReader struct {
	et *exiftool.Exiftool
}

// NewExiftoolReader starts exiftool. It fails when the binary is unavailable.
func NewExiftoolReader() (*ExiftoolReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExiftoolReader{et: et}, nil
}

// Close stops the exiftool process.
func (r *ExiftoolReader) Close() error {
	return r.et.Close()
}

// Read implements ExifReader.
func (r *ExiftoolReader) Read(path string) (*RawExif, error) {
	fis := r.et.ExtractMetadata(path)
	if len(fis) == 0 {
		return nil, fmt.Errorf("no metadata returned for %q", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v\n", k, v)
	}

	present := false
	for _, k := range exifKeys {
		if _, ok := fi.Fields[k]; ok {
			present = true
			break
		}
	}
	if !present {
		return nil, nil
	}

	i := &RawExif{}
	var err error

	i.Model, err = fi.GetString("Model")
	if err != nil {
		klog.V(1).Infof("unable to get model for %s: %v", path, err)
	}

	i.LensModel, _ = fi.GetString("LensModel")

	i.FNumber, err = fi.GetFloat("FNumber")
	if err != nil {
		klog.V(1).Infof("unable to get aperture for %s: %v", path, err)
	}

	i.ExposureTime, err = fi.GetString("ExposureTime")
	if err != nil {
		klog.V(1).Infof("unable to get exposure time for %s: %v", path, err)
	}

	if iso, err := fi.GetInt("ISO"); err == nil {
		i.ISO = strconv.FormatInt(iso, 10)
	}

	i.FocalLength, err = fi.GetString("FocalLength")
	if err != nil {
		klog.V(1).Infof("unable to get focal length for %s: %v", path, err)
	}
	i.FocalLength = strings.TrimSuffix(strings.TrimSuffix(i.FocalLength, " mm"), ".0")

	ds, err := fi.GetString("DateTimeOriginal")
	if err != nil {
		klog.V(1).Infof("unable to get date time for %s: %v", path, err)
		return i, nil
	}

	i.Taken, err = time.Parse(exifDate, ds)
	if err != nil {
		klog.Warningf("parse time %q: %v", ds, err)
	}
	return i, nil
}
