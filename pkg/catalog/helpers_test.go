package catalog

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// fixedSource always returns the same index, clamped to the pool size.
type fixedSource int

func (f fixedSource) IntN(n int) int { return min(int(f), n-1) }

// fakeExif returns a canned result for every file.
type fakeExif struct {
	raw *RawExif
	err error
	n   int
}

func (f *fakeExif) Read(string) (*RawExif, error) {
	f.n++
	return f.raw, f.err
}

type fakeTagger []string

func (f fakeTagger) Tags(context.Context, string) ([]string, error) { return f, nil }

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
}
