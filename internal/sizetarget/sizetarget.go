// Package sizetarget implements the size-targeted compression engine:
// given a decoded image and a byte budget, it finds the encoding
// quality (and, if permitted, a downscale factor) that produces output
// at or under the budget.
package sizetarget

import (
	"errors"
	"image"
)

const (
	// QualityMin and QualityMax bound the primary quality search.
	QualityMin = 10
	QualityMax = 95

	// DefaultQuality is used when no byte budget is requested.
	DefaultQuality = 90

	// fallbackQualityMin tightens the lower quality bound once the
	// image is being downscaled; heavily shrunk low-quality output is
	// rarely worth keeping.
	fallbackQualityMin = 60

	scaleStart = 0.95
	scaleStep  = 0.85
	scaleFloor = 0.30
)

// ErrUnreachable indicates that no quality/scale combination within the
// search bounds produced output at or under the byte budget.
var ErrUnreachable = errors.New("no quality or scale combination meets the size target")

// Encoder produces encoded bytes for an image at a given quality.
// Encoded size is expected, but not guaranteed, to be non-decreasing in
// quality; the searches never rely on strict monotonicity.
type Encoder interface {
	Encode(img image.Image, quality int) ([]byte, error)
}

// ScaleFunc resamples an image by a factor in (0, 1].
type ScaleFunc func(img image.Image, factor float64) image.Image

// Probe describes a single encode attempt during a search.
type Probe struct {
	Quality int
	Scale   float64
	Size    int64
}

// TraceFunc observes probes. Tracing is purely informational and never
// affects the search's control flow.
type TraceFunc func(Probe)

// Request carries one image through a compression run. The image is
// owned by the request and must not be mutated while Compress runs.
type Request struct {
	Image       image.Image
	TargetBytes int64 // 0 means no budget: encode once at a fixed quality
	Quality     int   // quality for the budget-free path; 0 means DefaultQuality
	AutoScale   bool
	Trace       TraceFunc
}

// Result is a successful compression. Data is always at or under the
// request's byte budget when one was set.
type Result struct {
	Data    []byte
	Quality int
	Scale   float64
}

func (r Request) trace(p Probe) {
	if r.Trace != nil {
		r.Trace(p)
	}
}

// Compress finds an encoding of the request's image that fits its byte
// budget. Without a budget it encodes once at DefaultQuality. With one,
// it runs the quality search first and falls back to downscaling only
// when the search fails and the request permits it. Returns
// ErrUnreachable when no combination fits.
func Compress(req Request, enc Encoder, scale ScaleFunc) (*Result, error) {
	if req.TargetBytes <= 0 {
		quality := req.Quality
		if quality <= 0 {
			quality = DefaultQuality
		}
		data, err := enc.Encode(req.Image, quality)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Quality: quality, Scale: 1.0}, nil
	}

	best, err := searchQuality(req, enc)
	if err != nil {
		return nil, err
	}
	if best != nil {
		return best, nil
	}
	if !req.AutoScale {
		return nil, ErrUnreachable
	}

	best, err = fallbackSearch(req, enc, scale)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, ErrUnreachable
	}
	return best, nil
}
