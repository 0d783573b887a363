// Package catalog describes the images of the website gallery as JSON records.
package catalog

import (
	"encoding/json"
	"io"
)

// ImageRecord describes one gallery image.
type ImageRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    Category  `json:"category"`
	Subcategory string    `json:"subcategory"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail"`
	Images      []string  `json:"images"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	Tags        []string  `json:"tags"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Exif        *ExifInfo `json:"exif,omitempty"`
}

// Result is the document returned to the website.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Images  []*ImageRecord `json:"images"`
}

// WriteJSON writes r as indented JSON without HTML escaping.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(r)
}

// Config holds configuration for the catalog.
type Config struct {
	Root       string
	Extensions []string
	ThumbDir   string
	// ThumbName is the derivative shown as the record thumbnail when it exists.
	ThumbName string
	// SeedDir is copied into Root when Root has to be created.
	SeedDir string
}

// DefaultConfig returns the stock website configuration.
func DefaultConfig() *Config {
	return &Config{
		Root:       "images",
		Extensions: []string{"jpg", "jpeg", "png", "gif", "webp"},
		ThumbDir:   "thumbs",
		ThumbName:  "thumbnail",
	}
}
