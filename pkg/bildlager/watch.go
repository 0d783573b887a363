package bildlager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// DefaultSettle is how long a file must stay quiet before it is optimized.
var DefaultSettle = time.Second

// entryFor builds a FileEntry for an absolute path under the configured root.
func (o *Optimizer) entryFor(path string) (FileEntry, error) {
	root, err := filepath.Abs(o.c.Root)
	if err != nil {
		return FileEntry{}, fmt.Errorf("abs: %w", err)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return FileEntry{}, fmt.Errorf("rel: %w", err)
	}
	return FileEntry{Path: path, RelPath: filepath.ToSlash(rel), Ext: Ext(path)}, nil
}

// watchDirs lists root and every directory below it, excluding thumbnail directories.
func (o *Optimizer) watchDirs(root string) ([]string, error) {
	dirs := []string{}
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if !de.IsDir() {
				return nil
			}
			if path != root && de.Name() == o.c.ThumbDir {
				return godirwalk.SkipThis
			}
			dirs = append(dirs, path)
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			klog.Warningf("unable to watch %s: %v", path, err)
			return godirwalk.SkipNode
		},
	})
	return dirs, err
}

// watcher holds the state of a watch loop. It is only touched by the loop goroutine.
type watcher struct {
	o       *Optimizer
	w       *fsnotify.Watcher
	settle  time.Duration
	pending map[string]time.Time
}

// Watch optimizes images as they are added under the root, until ctx is done.
// Files still holding what an optimizer sharing o's history wrote are not
// processed again, and nothing is processed while a run holds the tree.
func (o *Optimizer) Watch(ctx context.Context, settle time.Duration) error {
	root, err := filepath.Abs(o.c.Root)
	if err != nil {
		return fmt.Errorf("abs: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer fw.Close()

	if settle <= 0 {
		settle = DefaultSettle
	}
	wa := &watcher{o: o, w: fw, settle: settle, pending: map[string]time.Time{}}

	dirs, err := o.watchDirs(root)
	if err != nil {
		return fmt.Errorf("list dirs: %w", err)
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	klog.Infof("watching %d dirs under %s ...", len(dirs), root)

	tick := time.NewTicker(settle / 2)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			wa.event(ev, time.Now())
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		case now := <-tick.C:
			wa.flush(now)
		}
	}
}

func (wa *watcher) event(ev fsnotify.Event, now time.Time) {
	klog.V(1).Infof("event: %s", ev)
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if filepath.Base(filepath.Dir(ev.Name)) == wa.o.c.ThumbDir {
		return
	}

	st, err := os.Stat(ev.Name)
	if err != nil {
		return
	}

	if st.IsDir() {
		if filepath.Base(ev.Name) == wa.o.c.ThumbDir {
			return
		}
		wa.addTree(ev.Name, now)
		return
	}

	if !allowed(wa.o.c.Extensions, Ext(ev.Name)) {
		return
	}
	wa.pending[ev.Name] = now
}

// addTree watches a new directory and queues any images already inside it.
func (wa *watcher) addTree(dir string, now time.Time) {
	// Watch dir before listing it so nothing created in between is missed.
	if err := wa.w.Add(dir); err != nil {
		klog.Errorf("watch %s: %v", dir, err)
	}
	dirs, err := wa.o.watchDirs(dir)
	if err != nil {
		klog.Errorf("list %s: %v", dir, err)
	}
	for _, d := range dirs {
		if err := wa.w.Add(d); err != nil {
			klog.Errorf("watch %s: %v", d, err)
		}
	}

	_, err = Walk(dir, wa.o.walkOpts(), func(e FileEntry) error {
		wa.pending[e.Path] = now
		return nil
	})
	if err != nil {
		klog.Errorf("walk %s: %v", dir, err)
	}
}

// flush processes the files that have been quiet for the settle time. While a
// run holds the tree they stay queued for the next tick.
func (wa *watcher) flush(now time.Time) {
	ready := []string{}
	for p, t := range wa.pending {
		if now.Sub(t) >= wa.settle {
			ready = append(ready, p)
		}
	}
	if len(ready) == 0 {
		return
	}

	if !wa.o.mu.TryLock() {
		klog.V(1).Infof("run in progress, deferring %d files", len(ready))
		return
	}
	defer wa.o.mu.Unlock()

	for _, p := range ready {
		delete(wa.pending, p)
		if wa.o.written.unchanged(p) {
			klog.V(1).Infof("%s is unchanged since it was optimized", p)
			continue
		}

		e, err := wa.o.entryFor(p)
		if err != nil {
			klog.Errorf("entry for %s: %v", p, err)
			continue
		}
		if _, err := wa.o.process(e); err != nil {
			klog.V(1).Infof("skipped %s: %v", p, err)
		}
	}
}
