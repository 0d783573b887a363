// catalog prints the gallery catalog of an image directory as JSON.
package main

import (
	"context"
	"flag"
	"os"

	"k8s.io/klog/v2"

	"github.com/tstromberg/bildlager/pkg/catalog"
)

var (
	root      = flag.String("root", "images", "image directory to describe")
	exifMode  = flag.String("exif", "native", "how to read EXIF: native or exiftool")
	aiFlag    = flag.Bool("ai", false, "add Gemini suggested tags (requires GOOGLE_AI_API_KEY)")
	modelName = flag.String("model", "gemini-2.5-flash", "Gemini model used with -ai")
	seedDir   = flag.String("seed", "", "copy this directory into root when root has to be created")
	thumbName = flag.String("thumb", "thumbnail", "derivative to use as the record thumbnail, if present")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx := context.Background()
	c := catalog.DefaultConfig()
	c.Root = *root
	c.SeedDir = *seedDir
	c.ThumbName = *thumbName

	opts := []catalog.Option{}
	switch *exifMode {
	case "native":
	case "exiftool":
		et, err := catalog.NewExiftoolReader()
		if err != nil {
			klog.Exitf("exiftool: %v", err)
		}
		defer func() {
			if err := et.Close(); err != nil {
				klog.Errorf("Failed to close exiftool: %v", err)
			}
		}()
		opts = append(opts, catalog.WithExifReader(et))
	default:
		klog.Exitf("unknown -exif mode %q, want native or exiftool", *exifMode)
	}

	if *aiFlag {
		key := os.Getenv("GOOGLE_AI_API_KEY")
		if key == "" {
			klog.Exitf("-ai requires GOOGLE_AI_API_KEY")
		}
		t, err := catalog.NewGeminiTagger(ctx, key, *modelName)
		if err != nil {
			klog.Exitf("tagger: %v", err)
		}
		opts = append(opts, catalog.WithTagger(t))
	}

	res, err := catalog.New(c, opts...).Index(ctx)
	if werr := res.WriteJSON(os.Stdout); werr != nil {
		klog.Errorf("write: %v", werr)
	}
	if err != nil {
		klog.Exitf("catalog failed: %v", err)
	}
	klog.Infof("%s", res.Message)
}
