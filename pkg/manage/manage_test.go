package manage

import (
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tstromberg/bildlager/pkg/bildlager"
	"github.com/tstromberg/bildlager/pkg/catalog"
)

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
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "photography", "landscape", "a.jpg"), 40, 20)

	oc := bildlager.DefaultConfig()
	oc.Root = root
	cc := catalog.DefaultConfig()
	cc.Root = root
	return New(bildlager.NewOptimizer(oc, nil), cc), root
}

func get(s *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestOptimizeRejectsQuality(t *testing.T) {
	s, _ := testServer(t)
	for _, q := range []string{"59", "101", "abc", "-5"} {
		w := get(s, "/optimize?quality="+q)
		if w.Code != http.StatusBadRequest {
			t.Errorf("quality=%s: status = %d, want %d", q, w.Code, http.StatusBadRequest)
		}
	}
}

func TestOptimize(t *testing.T) {
	s, root := testServer(t)
	w := get(s, "/optimize?quality=90")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, " - starting image optimization in "+root+" (quality 90)") {
		t.Errorf("run log does not mention the quality:\n%s", body)
	}
	if !strings.Contains(body, "image optimization finished: 1 processed") {
		t.Errorf("run log has no summary:\n%s", body)
	}
	if _, err := os.Stat(filepath.Join(root, "photography", "landscape", "thumbs", "a_thumbnail.jpg")); err != nil {
		t.Errorf("thumbnail missing: %v", err)
	}
	if q := s.o.Config().Quality; q != 85 {
		t.Errorf("server quality changed to %d", q)
	}
}

// gateWriter blocks the first run log write until released, holding the run open.
type gateWriter struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGateWriter() *gateWriter {
	return &gateWriter{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gateWriter) Write(p []byte) (int, error) {
	g.once.Do(func() {
		close(g.started)
		<-g.release
	})
	return len(p), nil
}

// startRun begins a run sharing s's lock and returns once it holds the tree.
func startRun(t *testing.T, s *Server) (release func()) {
	t.Helper()
	g := newGateWriter()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := s.o.With(s.o.Config(), g).Run(); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	<-g.started
	return func() {
		close(g.release)
		<-done
	}
}

func TestOptimizeBusy(t *testing.T) {
	s, _ := testServer(t)
	release := startRun(t, s)
	defer release()

	w := get(s, "/optimize")
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if strings.Contains(w.Body.String(), "starting image optimization") {
		t.Errorf("busy request started a run:\n%s", w.Body.String())
	}
}

func TestOptimizeBusyWhileReading(t *testing.T) {
	s, _ := testServer(t)
	l := s.o.ReadLocker()
	l.Lock()
	defer l.Unlock()

	if w := get(s, "/optimize"); w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestCatalogWaitsForRun(t *testing.T) {
	s, _ := testServer(t)
	release := startRun(t, s)

	served := make(chan *httptest.ResponseRecorder, 1)
	go func() { served <- get(s, "/images.json") }()

	select {
	case <-served:
		t.Fatalf("catalog served while a run was rewriting images")
	case <-time.After(200 * time.Millisecond):
	}
	release()

	select {
	case w := <-served:
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		var res catalog.Result
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(res.Images) != 1 || res.Images[0].Width != 40 || res.Images[0].Height != 20 {
			t.Errorf("images = %+v, want one 40x20 record", res.Images)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("catalog not served after the run finished")
	}
}

func TestCatalog(t *testing.T) {
	s, _ := testServer(t)
	w := get(s, "/images.json")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var res catalog.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !res.Success || len(res.Images) != 1 {
		t.Fatalf("result = %+v, want one image", res)
	}
	r := res.Images[0]
	if r.Category != catalog.Photography || r.Subcategory != catalog.Landscape || r.Exif == nil {
		t.Errorf("record = %+v", r)
	}
}

func TestCatalogAfterOptimize(t *testing.T) {
	s, _ := testServer(t)
	if w := get(s, "/optimize"); w.Code != http.StatusOK {
		t.Fatalf("optimize status = %d", w.Code)
	}

	var res catalog.Result
	if err := json.Unmarshal(get(s, "/images.json").Body.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(res.Images) != 1 {
		t.Fatalf("got %d images, want 1 (derivatives must not be listed)", len(res.Images))
	}
	if got := res.Images[0].Thumbnail; got != "photography/landscape/thumbs/a_thumbnail.jpg" {
		t.Errorf("thumbnail = %q", got)
	}
}

func TestStaticImages(t *testing.T) {
	s, _ := testServer(t)
	w := get(s, "/images/photography/landscape/a.jpg")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if _, err := jpeg.DecodeConfig(w.Body); err != nil {
		t.Errorf("served file is not a JPEG: %v", err)
	}
	if w := get(s, "/images/nope.jpg"); w.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", w.Code)
	}
}
