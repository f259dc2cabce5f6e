package postprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/yuanying/tex2epub/internal/epub"
)

const (
	defaultJPEGQuality = 85
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// ImageResizer downscales raster images wider than MaxWidth. The encoded
// format is never changed so manifest entries and references stay valid.
type ImageResizer struct {
	MaxWidth    int
	JPEGQuality int
	MaxPixels   int // Total pixel count limit for decode (width * height)
}

// NewImageResizer creates a resizer with defaults for unset values.
func NewImageResizer(maxWidth, quality int) *ImageResizer {
	if quality <= 0 {
		quality = defaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}
	return &ImageResizer{
		MaxWidth:    maxWidth,
		JPEGQuality: quality,
		MaxPixels:   defaultMaxPixels,
	}
}

// Resize returns the downscaled encoding of data and true, or data and
// false when the image is narrow enough, animated, too large to decode or
// not decodable.
func (r *ImageResizer) Resize(data []byte) ([]byte, bool, error) {
	if r.MaxWidth <= 0 {
		return data, false, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data, false, nil
	}
	if cfg.Width <= r.MaxWidth {
		return data, false, nil
	}
	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if r.MaxPixels > 0 && pixels > uint64(r.MaxPixels) {
		return data, false, nil
	}
	if format == "gif" {
		if animated, err := isAnimatedGIF(data); err != nil || animated {
			return data, false, nil
		}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, false, nil
	}
	resized := imaging.Resize(src, r.MaxWidth, 0, imaging.Lanczos)

	var target imaging.Format
	var opts []imaging.EncodeOption
	switch format {
	case "jpeg":
		target = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(r.JPEGQuality))
	case "png":
		target = imaging.PNG
	case "gif":
		target = imaging.GIF
	default:
		return data, false, nil
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, target, opts...); err != nil {
		return data, false, fmt.Errorf("%s encode failed: %w", format, err)
	}
	return buf.Bytes(), true, nil
}

// resizeImages rewrites every oversized raster image below root in place
// and returns how many were resized.
func (r *ImageResizer) resizeImages(root string, logger *slog.Logger) (int, error) {
	resized := 0
	for _, path := range epub.FindFiles(root, ".png", ".jpg", ".jpeg", ".gif") {
		data, err := os.ReadFile(path)
		if err != nil {
			return resized, fmt.Errorf("failed to read image: %w", err)
		}
		out, ok, err := r.Resize(data)
		if err != nil {
			logger.Warn("failed to resize image, keeping original", "image", filepath.Base(path), "error", err)
			continue
		}
		if !ok {
			continue
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return resized, fmt.Errorf("failed to write image: %w", err)
		}
		logger.Debug("resized image", "image", strings.TrimPrefix(path, root+string(filepath.Separator)))
		resized++
	}
	return resized, nil
}

func isAnimatedGIF(data []byte) (bool, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	return len(g.Image) > 1, nil
}
