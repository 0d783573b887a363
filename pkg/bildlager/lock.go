package bildlager

import (
	"errors"
	"os"
	"sync"
	"time"
)

// ErrBusy is returned by TryRun while another run is rewriting the tree.
var ErrBusy = errors.New("an optimization is already running")

// stamp identifies the content the optimizer last wrote to a file.
type stamp struct {
	size int64
	mod  time.Time
}

// history remembers what the optimizer wrote, so that watch mode can tell
// its own writes from new content.
type history struct {
	mu sync.Mutex
	m  map[string]stamp
}

func newHistory() *history {
	return &history{m: map[string]stamp{}}
}

// record stores the current size and mtime of path.
func (h *history) record(path string) {
	st, err := os.Stat(path)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.m[path] = stamp{size: st.Size(), mod: st.ModTime()}
}

// unchanged reports whether path still holds what the optimizer last wrote.
func (h *history) unchanged(path string) bool {
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.m[path]
	return ok && s.size == st.Size() && s.mod.Equal(st.ModTime())
}

// ReadLocker returns a lock that keeps runs from rewriting the tree while it is held.
func (o *Optimizer) ReadLocker() sync.Locker {
	return o.mu.RLocker()
}
