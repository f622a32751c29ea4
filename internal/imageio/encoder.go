package imageio

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// Encoder encodes a decoded image to bytes at a given quality.
// Quality is an integer in [1, 100]; encoders for formats without a
// quality knob (PNG, GIF, BMP, TIFF) ignore it.
type Encoder interface {
	Encode(img image.Image, quality int) ([]byte, error)
}

// NewEncoder returns the encoder for the given format.
func NewEncoder(f Format) Encoder {
	switch f {
	case JPEG:
		return jpegEncoder{}
	case PNG:
		return pngEncoder{}
	case GIF:
		return plainEncoder{format: imaging.GIF}
	case BMP:
		return plainEncoder{format: imaging.BMP}
	default:
		return plainEncoder{format: imaging.TIFF}
	}
}

type jpegEncoder struct{}

func (jpegEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type pngEncoder struct{}

func (pngEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// plainEncoder covers formats whose imaging encoders take no options.
type plainEncoder struct {
	format imaging.Format
}

func (e plainEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, e.format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
