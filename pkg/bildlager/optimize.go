package bildlager

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// Optimizer recompresses originals and writes their derivatives.
type Optimizer struct {
	c   *Config
	log *RunLog
	// mu is held for writing while the tree is rewritten. It is shared by
	// every optimizer derived through With.
	mu      *sync.RWMutex
	written *history
}

// NewOptimizer returns an optimizer that writes its run log to w.
func NewOptimizer(c *Config, w io.Writer) *Optimizer {
	return &Optimizer{c: c, log: NewRunLog(w), mu: &sync.RWMutex{}, written: newHistory()}
}

// With returns an optimizer for c, logging to w, that shares o's run lock
// and write history. Watch mode ignores files written by any of them.
func (o *Optimizer) With(c *Config, w io.Writer) *Optimizer {
	return &Optimizer{c: c, log: NewRunLog(w), mu: o.mu, written: o.written}
}

// Config returns the configuration of o.
func (o *Optimizer) Config() *Config {
	return o.c
}

// Result describes what happened to one file.
type Result struct {
	Entry   FileEntry
	Width   int
	Height  int
	Resized bool
	Thumbs  []ThumbMeta
}

// Summary describes a whole run.
type Summary struct {
	Processed  int
	Failed     int
	Resized    int
	Thumbs     int
	Unreadable []string
}

// CheckCodecs round-trips a pixel through the JPEG and PNG codecs. This package
// imports both, so it only fails if their registration is broken; it is a
// startup assertion rather than a probe of optional codecs.
func CheckCodecs() error {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})

	jpegEnc := func(w io.Writer, img image.Image) error { return jpeg.Encode(w, img, nil) }
	if err := roundTrip("jpeg", img, jpegEnc); err != nil {
		return err
	}
	return roundTrip("png", img, png.Encode)
}

// roundTrip encodes img with enc and checks that it decodes as format want.
func roundTrip(want string, img image.Image, enc func(io.Writer, image.Image) error) error {
	var b bytes.Buffer
	if err := enc(&b, img); err != nil {
		return fmt.Errorf("%s encode: %w", want, err)
	}
	_, format, err := image.Decode(&b)
	if err != nil {
		return fmt.Errorf("%s decode: %w", want, err)
	}
	if format != want {
		return fmt.Errorf("%s data decoded as %q", want, format)
	}
	return nil
}

// Run optimizes every matching image under the configured root, waiting for
// any run in progress. Only configuration errors are returned; per-file
// failures are logged and counted.
func (o *Optimizer) Run() (*Summary, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run()
}

// TryRun is Run, but returns ErrBusy instead of waiting.
func (o *Optimizer) TryRun() (*Summary, error) {
	if !o.mu.TryLock() {
		return nil, ErrBusy
	}
	defer o.mu.Unlock()
	return o.run()
}

func (o *Optimizer) run() (*Summary, error) {
	o.log.Printf("starting image optimization in %s (quality %d)", o.c.Root, o.c.Quality)

	created, err := EnsureRoot(o.c.Root)
	if err != nil {
		o.log.Printf("error: unable to create input directory %s: %v", o.c.Root, err)
		return nil, fmt.Errorf("ensure root: %w", err)
	}
	if created {
		o.log.Printf("input directory %s did not exist and was created", o.c.Root)
	}

	sum := &Summary{}
	st, err := Walk(o.c.Root, o.walkOpts(), func(e FileEntry) error {
		r, err := o.process(e)
		if err != nil {
			sum.Failed++
			return nil
		}
		sum.Processed++
		sum.Thumbs += len(r.Thumbs)
		if r.Resized {
			sum.Resized++
		}
		return nil
	})
	if err != nil {
		return sum, err
	}
	sum.Unreadable = st.Unreadable

	o.log.Printf("image optimization finished: %d processed, %d failed, %d resized, %d thumbnails", sum.Processed, sum.Failed, sum.Resized, sum.Thumbs)
	return sum, nil
}

func (o *Optimizer) walkOpts() WalkOpts {
	return WalkOpts{Extensions: o.c.Extensions, SkipDirs: []string{o.c.ThumbDir}}
}

// Process optimizes a single image and writes its derivatives.
// A returned error means the file was skipped; it has already been logged.
func (o *Optimizer) Process(e FileEntry) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.process(e)
}

func (o *Optimizer) process(e FileEntry) (*Result, error) {
	o.log.Printf("processing image: %s", e.Path)

	f, err := FormatForExt(e.Ext)
	if err != nil {
		o.log.Printf("unsupported image format: %s", e.Ext)
		return nil, err
	}
	s := EncodeSettings{Format: f, Quality: o.c.Quality}

	img, err := imgio.Open(e.Path)
	if err != nil {
		o.log.Printf("unable to read image %s: %v", e.Path, err)
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := o.backup(e); err != nil {
		o.log.Printf("unable to back up %s, leaving it untouched: %v", e.Path, err)
		return nil, err
	}

	r := &Result{Entry: e}
	o.log.Printf("optimizing original: %s", e.Path)
	r.Width, r.Height, r.Resized, err = o.optimizeOriginal(e, img, s)
	if err != nil {
		o.log.Printf("warning: unable to rewrite original %s: %v", e.Path, err)
	} else {
		o.written.record(e.Path)
	}

	thumbDir := filepath.Join(filepath.Dir(e.Path), o.c.ThumbDir)
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		o.log.Printf("warning: unable to create thumbnail directory: %s", thumbDir)
		return r, nil
	}

	for _, t := range o.c.Thumbnails {
		p := ThumbPath(e.Path, o.c.ThumbDir, e, t)
		tm, err := createThumb(img, p, t, s)
		if err != nil {
			o.log.Printf("warning: unable to create thumbnail %s: %v", p, err)
			continue
		}
		r.Thumbs = append(r.Thumbs, *tm)
		o.log.Printf("generated thumbnail: %s (%d x %d)", p, tm.X, tm.Y)
	}

	return r, nil
}

// optimizeOriginal rewrites the original in place, downsampling it first when it
// exceeds the configured bounds. It returns the final dimensions.
func (o *Optimizer) optimizeOriginal(e FileEntry, img image.Image, s EncodeSettings) (int, int, bool, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if !NeedsResize(w, h, o.c.MaxOriginal) {
		return w, h, false, save(e.Path, img, s)
	}

	nw, nh := Fit(w, h, o.c.MaxOriginal.Width, o.c.MaxOriginal.Height)
	if err := save(e.Path, resample(img, nw, nh), s); err != nil {
		return w, h, false, err
	}
	o.log.Printf("resized: %d x %d -> %d x %d", w, h, nw, nh)
	return nw, nh, true, nil
}

// backup copies the untouched original into BackupDir once.
func (o *Optimizer) backup(e FileEntry) error {
	if o.c.BackupDir == "" {
		return nil
	}

	dest := filepath.Join(o.c.BackupDir, filepath.FromSlash(e.RelPath))
	if _, err := os.Stat(dest); err == nil {
		klog.V(1).Infof("%s already backed up", e.Path)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat: %w", err)
	}

	if err := copy.Copy(e.Path, dest); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	klog.V(1).Infof("backed up %s -> %s", e.Path, dest)
	return nil
}
