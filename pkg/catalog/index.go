package catalog

import (
	"context"
	"fmt"
	"image"
	"os"
	"slices"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"github.com/otiai10/copy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"k8s.io/klog/v2"

	"github.com/tstromberg/bildlager/pkg/bildlager"
)

// DateFormat is the format of ImageRecord.Date.
const DateFormat = "2006-01-02"

// Indexer builds ImageRecords for every image under a root.
type Indexer struct {
	c      *Config
	exif   ExifReader
	src    Source
	tagger Tagger
	newID  func() string
	title  cases.Caser
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithExifReader sets how embedded EXIF is read.
func WithExifReader(r ExifReader) Option {
	return func(ix *Indexer) { ix.exif = r }
}

// WithSource sets the random source used for synthesized fields.
func WithSource(s Source) Option {
	return func(ix *Indexer) { ix.src = s }
}

// WithTagger adds suggested keywords to every record.
func WithTagger(t Tagger) Option {
	return func(ix *Indexer) { ix.tagger = t }
}

// New returns an Indexer. EXIF is read natively unless WithExifReader is given.
func New(c *Config, opts ...Option) *Indexer {
	ix := &Indexer{
		c:     c,
		exif:  NativeReader{},
		src:   globalSource{},
		newID: newID,
		title: cases.Title(language.Und, cases.NoLower),
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// newID returns a time ordered, random id.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Index scans the root and returns a record for every image found.
// The returned error is non-nil only when the root cannot be prepared.
func (ix *Indexer) Index(ctx context.Context) (*Result, error) {
	res := &Result{Images: []*ImageRecord{}}

	created, err := bildlager.EnsureRoot(ix.c.Root, Scaffold...)
	if err != nil {
		res.Message = "images目录不存在且无法创建"
		return res, fmt.Errorf("ensure root: %w", err)
	}
	if created && ix.c.SeedDir != "" {
		klog.Infof("seeding %s from %s", ix.c.Root, ix.c.SeedDir)
		if err := copy.Copy(ix.c.SeedDir, ix.c.Root); err != nil {
			klog.Warningf("unable to seed %s: %v", ix.c.Root, err)
		}
	}

	o := bildlager.WalkOpts{Extensions: ix.c.Extensions, SkipDirs: []string{ix.c.ThumbDir}}
	for e := range bildlager.Files(ix.c.Root, o) {
		r, err := ix.Record(ctx, e)
		if err != nil {
			klog.Errorf("skipping %s: %v", e.Path, err)
			continue
		}
		res.Images = append(res.Images, r)
	}

	res.Success = true
	res.Message = fmt.Sprintf("已扫描到 %d 张图片", len(res.Images))
	if created {
		res.Message = "images目录已创建，" + res.Message
	}
	return res, nil
}

// classify derives the category and subcategory from the directories of a relative path.
func classify(relPath string) (Category, string) {
	dirs := strings.Split(relPath, "/")
	dirs = dirs[:len(dirs)-1]

	cat := Other
	sub := ""
	if len(dirs) > 0 {
		cat = ParseCategory(dirs[0])
	}
	if len(dirs) > 1 {
		sub = dirs[1]
	}
	return cat, sub
}

// Title turns a file stem such as "sunset_over-lake" into "Sunset Over Lake".
func (ix *Indexer) Title(stem string) string {
	return ix.title.String(strings.NewReplacer("_", " ", "-", " ").Replace(stem))
}

// Record builds the record for a single image.
func (ix *Indexer) Record(ctx context.Context, e bildlager.FileEntry) (*ImageRecord, error) {
	st, err := os.Stat(e.Path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	cat, sub := classify(e.RelPath)
	p := lookup(cat, sub)

	r := &ImageRecord{
		ID:          ix.newID(),
		Title:       ix.Title(e.Stem()),
		Category:    cat,
		Subcategory: sub,
		Description: pick(ix.src, p.descriptions),
		Thumbnail:   ix.thumbnail(e),
		Images:      []string{e.RelPath},
		Date:        st.ModTime().Format(DateFormat),
		Location:    ix.location(cat, p),
		Tags:        ix.tags(cat, p),
	}

	if w, h, err := dimensions(e.Path); err == nil {
		r.Width, r.Height = w, h
	} else {
		klog.V(1).Infof("unable to read dimensions of %s: %v", e.Path, err)
	}

	if cat == Photography && (e.Ext == "jpg" || e.Ext == "jpeg") {
		raw, err := ix.exif.Read(e.Path)
		if err != nil {
			klog.Warningf("exif %s: %v", e.Path, err)
		}
		if raw != nil {
			r.Exif = resolveExif(raw)
			if !raw.Taken.IsZero() {
				r.Date = raw.Taken.Format(DateFormat)
			}
		} else {
			r.Exif = synthesizeExif(ix.src, sub)
		}
	}

	if ix.tagger != nil {
		extra, err := ix.tagger.Tags(ctx, e.Path)
		if err != nil {
			klog.Warningf("tagger %s: %v", e.Path, err)
		}
		r.Tags = appendUnique(r.Tags, extra...)
	}

	return r, nil
}

func (ix *Indexer) location(cat Category, p profile) string {
	if cat != Photography {
		return StudioLocation
	}
	return pick(ix.src, p.locations)
}

// tags returns the base tag, the fixed subcategory tags and two or three sampled extras.
func (ix *Indexer) tags(cat Category, p profile) []string {
	tags := appendUnique(nil, baseTags[cat])
	tags = appendUnique(tags, p.tags...)
	return appendUnique(tags, sample(ix.src, p.extra, 2+ix.src.IntN(2))...)
}

// thumbnail prefers the optimizer's thumbnail derivative when it exists.
func (ix *Indexer) thumbnail(e bildlager.FileEntry) string {
	if ix.c.ThumbName == "" {
		return e.RelPath
	}
	t := bildlager.ThumbSpec{Name: ix.c.ThumbName}
	if _, err := os.Stat(bildlager.ThumbPath(e.Path, ix.c.ThumbDir, e, t)); err != nil {
		return e.RelPath
	}
	return bildlager.ThumbRelPath(ix.c.ThumbDir, e, t)
}

func dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	c, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return c.Width, c.Height, nil
}

func appendUnique(tags []string, more ...string) []string {
	for _, t := range more {
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	return tags
}
