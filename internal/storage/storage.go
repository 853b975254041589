package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DrawingPrefix is the key namespace for drawing images.
const DrawingPrefix = "desenhos"

// ErrNotExist is returned by Remove when the object is already gone.
var ErrNotExist = errors.New("blob does not exist")

// BlobStore keeps uploaded files and hands out public URLs for them.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

var slugInvalid = regexp.MustCompile(`[^a-zA-Z0-9\-_]+`)

// Slug folds accents and replaces anything outside [a-zA-Z0-9-_] with "-".
func Slug(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = slugInvalid.ReplaceAllString(folded, "-")
	folded = strings.Trim(folded, "-")
	return strings.ToLower(folded)
}

// DrawingKey builds desenhos/<slug(code)>_<unix ms>.<ext>.
func DrawingKey(code, ext string, now time.Time) string {
	slug := Slug(code)
	if slug == "" {
		slug = "desenho"
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s/%s_%d.%s", DrawingPrefix, slug, now.UnixMilli(), ext)
}

// ThumbKey places the thumbnail of key under <dir>/thumbs with a .jpg extension.
func ThumbKey(key string) string {
	dir, file := path.Split(key)
	base := strings.TrimSuffix(file, path.Ext(file))
	return path.Join(dir, "thumbs", base+".jpg")
}

// ValidKey rejects keys that could escape the store root.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
