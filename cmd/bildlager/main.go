// bildlager recompresses website images in place and writes their thumbnails.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"k8s.io/klog/v2"

	"github.com/tstromberg/bildlager/pkg/bildlager"
	"github.com/tstromberg/bildlager/pkg/catalog"
	"github.com/tstromberg/bildlager/pkg/manage"
)

var (
	root       = flag.String("root", "", "image directory to optimize (default from config, or images)")
	quality    = flag.Int("quality", 0, "output quality, 60-100 (default from config, or 85)")
	configPath = flag.String("config", "", "optional YAML configuration file")
	backupDir  = flag.String("backup", "", "copy untouched originals here before rewriting them")
	watchFlag  = flag.Bool("watch", false, "keep running and optimize new images as they appear")
	settle     = flag.Duration("settle", bildlager.DefaultSettle, "how long a new file must stay unchanged before it is optimized")
	listen     = flag.Bool("listen", false, "serve the optimizer, catalog and images via HTTP")
	addr       = flag.String("addr", "localhost:12800", "host:port to bind to in listen mode")
)

func config() (*bildlager.Config, error) {
	c := bildlager.DefaultConfig()
	if *configPath != "" {
		var err error
		c, err = bildlager.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}

	if *root != "" {
		c.Root = *root
	}
	if *quality != 0 {
		c.Quality = *quality
	}
	if *backupDir != "" {
		c.BackupDir = *backupDir
	}
	return c, c.Validate()
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if err := bildlager.CheckCodecs(); err != nil {
		klog.Exitf("image codecs unavailable: %v", err)
	}

	c, err := config()
	if err != nil {
		klog.Exitf("invalid configuration: %v", err)
	}

	// One optimizer is shared by the initial run, watch mode and the HTTP
	// front, so they hold the same run lock and skip each other's writes.
	o := bildlager.NewOptimizer(c, os.Stdout)
	sum, err := o.Run()
	if err != nil {
		klog.Exitf("optimize failed: %v", err)
	}
	for _, d := range sum.Unreadable {
		klog.Warningf("unreadable directory was skipped: %s", d)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := o.Watch(ctx, *settle); err != nil {
				klog.Exitf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serve(ctx, o, *addr)
		}()
	}

	wg.Wait()
}

// serve serves the management routes until ctx is done.
func serve(ctx context.Context, o *bildlager.Optimizer, addr string) {
	c := o.Config()
	cc := catalog.DefaultConfig()
	cc.Root = c.Root
	cc.ThumbDir = c.ThumbDir

	srv := &http.Server{Addr: addr, Handler: manage.New(o, cc).Router()}
	go func() {
		<-ctx.Done()
		if err := srv.Close(); err != nil {
			klog.Errorf("close: %v", err)
		}
	}()

	klog.Infof("Listening on %s...", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		klog.Exitf("listen failed: %v", err)
	}
}
