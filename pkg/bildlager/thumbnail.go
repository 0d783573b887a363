package bildlager

import (
	"fmt"
	"image"
	"math"
	"path"
	"path/filepath"

	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"
)

// Filter is the resampling filter; Box averages the source area under each output pixel.
var Filter = transform.Box

// Fit returns the dimensions of w x h scaled uniformly to fit within maxW x maxH.
// The result touches at least one bound and is never smaller than 1x1.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	r := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * r))
	nh := int(math.Round(float64(h) * r))
	return max(1, min(maxW, nw)), max(1, min(maxH, nh))
}

// NeedsResize reports whether w x h exceeds the bounds on either axis.
func NeedsResize(w, h int, b Bounds) bool {
	return w > b.Width || h > b.Height
}

// ThumbPath returns where the derivative for a source path is written:
// <dir>/<thumbDir>/<stem>_<name>.<ext>.
func ThumbPath(src string, thumbDir string, e FileEntry, t ThumbSpec) string {
	return filepath.Join(filepath.Dir(src), thumbDir, fmt.Sprintf("%s_%s.%s", e.Stem(), t.Name, e.Ext))
}

// ThumbRelPath is ThumbPath relative to the walk root, slash separated.
func ThumbRelPath(thumbDir string, e FileEntry, t ThumbSpec) string {
	return path.Join(path.Dir(e.RelPath), thumbDir, fmt.Sprintf("%s_%s.%s", e.Stem(), t.Name, e.Ext))
}

// ThumbMeta describes a written derivative.
type ThumbMeta struct {
	Name string
	X    int
	Y    int
	Path string
}

// resample scales img to w x h. The destination canvas is RGBA written without
// blending, so transparent source pixels stay transparent.
func resample(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return transform.Resize(img, w, h, Filter)
}

func createThumb(img image.Image, path string, t ThumbSpec, s EncodeSettings) (*ThumbMeta, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty image: %+v", b)
	}

	x, y := Fit(b.Dx(), b.Dy(), t.MaxWidth, t.MaxHeight)
	klog.V(1).Infof("creating %s thumb %dx%d: %s", t.Name, x, y, path)

	rimg := resample(img, x, y)
	if err := save(path, rimg, s); err != nil {
		return nil, err
	}

	return &ThumbMeta{Name: t.Name, X: x, Y: y, Path: path}, nil
}
