package bildlager

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func relPaths(t *testing.T, root string, o WalkOpts) []string {
	t.Helper()
	got := []string{}
	if _, err := Walk(root, o, func(e FileEntry) error {
		got = append(got, e.RelPath)
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	slices.Sort(got)
	return got
}

func TestWalkFiltersExtensions(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{
		"note.txt",
		"Photo.JPG",
		"photography/landscape/a.jpeg",
		"photography/landscape/b.png",
		"design/ui/readme",
		"design/ui/c.gif",
		"design/ui/thumbs/c_thumbnail.png",
	} {
		touch(t, filepath.Join(root, p))
	}

	got := relPaths(t, root, WalkOpts{Extensions: []string{"jpg", "jpeg", "png"}, SkipDirs: []string{"thumbs"}})
	want := []string{"Photo.JPG", "photography/landscape/a.jpeg", "photography/landscape/b.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkEntryFields(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "design", "Logo-Final.PNG"))

	var got []FileEntry
	if _, err := Walk(root, WalkOpts{Extensions: []string{"png"}}, func(e FileEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	e := got[0]
	if e.Ext != "png" || e.RelPath != "design/Logo-Final.PNG" || e.Stem() != "Logo-Final" {
		t.Errorf("unexpected entry: %+v (stem %q)", e, e.Stem())
	}
	if !filepath.IsAbs(e.Path) {
		t.Errorf("path %q is not absolute", e.Path)
	}
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "b.jpg"))

	boom := errors.New("boom")
	calls := 0
	_, err := Walk(root, WalkOpts{Extensions: []string{"jpg"}}, func(FileEntry) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestWalkSkipsUnreadableDirs(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	touch(t, filepath.Join(root, "ok", "a.jpg"))
	touch(t, filepath.Join(root, "locked", "b.jpg"))
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	got := []string{}
	st, err := Walk(root, WalkOpts{Extensions: []string{"jpg"}}, func(e FileEntry) error {
		got = append(got, e.RelPath)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if diff := cmp.Diff([]string{"ok/a.jpg"}, got); diff != "" {
		t.Errorf("Walk() mismatch (-want +got):\n%s", diff)
	}
	if len(st.Unreadable) != 1 {
		t.Errorf("unreadable = %v, want one entry", st.Unreadable)
	}
}

func TestFilesStopsEarly(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		touch(t, filepath.Join(root, p))
	}

	n := 0
	for range Files(root, WalkOpts{Extensions: []string{"jpg"}}) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d, want 2", n)
	}
}

func TestEnsureRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "images")

	created, err := EnsureRoot(root, "photography/landscape", "design/ui")
	if err != nil {
		t.Fatalf("EnsureRoot: %v", err)
	}
	if !created {
		t.Errorf("created = false, want true")
	}
	for _, d := range []string{"photography/landscape", "design/ui"} {
		if st, err := os.Stat(filepath.Join(root, d)); err != nil || !st.IsDir() {
			t.Errorf("%s missing: %v", d, err)
		}
	}

	created, err = EnsureRoot(root)
	if err != nil || created {
		t.Errorf("second EnsureRoot = %v, %v; want false, nil", created, err)
	}
}

func TestEnsureRootFailure(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	touch(t, file)

	if _, err := EnsureRoot(file); err == nil {
		t.Errorf("EnsureRoot(file) succeeded, want error")
	}
	if _, err := EnsureRoot(filepath.Join(file, "images")); err == nil {
		t.Errorf("EnsureRoot under a file succeeded, want error")
	}
}
