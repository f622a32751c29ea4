// Package imageio provides the decode, encode and resampling primitives
// used by the size-targeted resizer. All resampling uses the Lanczos
// filter for quality on photographic content.
package imageio

import (
	"image"

	"github.com/disintegration/imaging"

	// WebP has no imaging codec; register the decoder so imaging.Open
	// can read .webp inputs through image.Decode.
	_ "golang.org/x/image/webp"
)

// Decode reads and decodes the image at path, applying EXIF orientation.
func Decode(path string) (image.Image, error) {
	return imaging.Open(path, imaging.AutoOrientation(true))
}

// ScaleBy resamples img by the given factor, preserving aspect ratio.
// Dimensions truncate toward zero and are clamped to at least 1 pixel.
func ScaleBy(img image.Image, factor float64) image.Image {
	bounds := img.Bounds()
	w := int(float64(bounds.Dx()) * factor)
	h := int(float64(bounds.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// ResizeTo resamples img to the target dimensions. With keepAspect the
// result is the largest image that fits within the w×h box at the
// original aspect ratio (upscaling included); otherwise the image is
// stretched to exactly w×h.
func ResizeTo(img image.Image, w, h int, keepAspect bool) image.Image {
	if !keepAspect {
		return imaging.Resize(img, w, h, imaging.Lanczos)
	}
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return img
	}
	// Fit within the box: pick the smaller of the two scale ratios.
	if int64(srcW)*int64(h) > int64(srcH)*int64(w) {
		h = 0 // width-bound; imaging derives height
	} else {
		w = 0
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
