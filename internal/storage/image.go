package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

// ThumbWidth is the width of generated drawing thumbnails.
const ThumbWidth = 480

var ErrUnsupportedImage = errors.New("formato de imagem não suportado")

// ImageInfo is what the drawing editor needs about an upload.
type ImageInfo struct {
	Width       int
	Height      int
	ContentType string
	Ext         string
}

var extByType = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
}

// Probe sniffs the content type and decodes the image header.
func Probe(data []byte) (ImageInfo, error) {
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	ext, ok := extByType[ct]
	if !ok {
		return ImageInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, ct)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return ImageInfo{Width: cfg.Width, Height: cfg.Height, ContentType: ct, Ext: ext}, nil
}

// Thumbnail renders a JPEG at most ThumbWidth wide, keeping the aspect ratio.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if img.Bounds().Dx() > ThumbWidth {
		img = imaging.Resize(img, ThumbWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
