package sizetarget

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pixelQualityEncoder emits exactly pixels*quality bytes, so encoded
// size is strictly increasing in quality and shrinks with the image.
type pixelQualityEncoder struct{}

func (pixelQualityEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	b := img.Bounds()
	return make([]byte, b.Dx()*b.Dy()*quality), nil
}

// fixedSizeEncoder ignores its inputs and always emits n bytes.
type fixedSizeEncoder struct{ n int }

func (e fixedSizeEncoder) Encode(image.Image, int) ([]byte, error) {
	return make([]byte, e.n), nil
}

type failingEncoder struct{}

func (failingEncoder) Encode(image.Image, int) ([]byte, error) {
	return nil, errors.New("encoder broke")
}

func testImage(w, h int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// shrinkBounds truncates dimensions toward zero, matching the real
// resampler's behavior.
func shrinkBounds(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	return testImage(int(float64(b.Dx())*factor), int(float64(b.Dy())*factor))
}

func noScale(img image.Image, factor float64) image.Image {
	panic("scale must not be called")
}

func collectTrace(probes *[]Probe) TraceFunc {
	return func(p Probe) { *probes = append(*probes, p) }
}

func TestQualitySearchPicksHighestFittingQuality(t *testing.T) {
	// 100x100 at quality q encodes to 10000*q bytes; 500000 admits
	// every quality up to 50.
	req := Request{Image: testImage(100, 100), TargetBytes: 500000}

	res, err := Compress(req, pixelQualityEncoder{}, noScale)
	require.NoError(t, err)
	assert.Equal(t, 50, res.Quality)
	assert.Equal(t, 1.0, res.Scale)
	assert.LessOrEqual(t, int64(len(res.Data)), req.TargetBytes)
}

func TestQualitySearchNeverReturnsBelowFittingProbe(t *testing.T) {
	var probes []Probe
	req := Request{
		Image:       testImage(100, 100),
		TargetBytes: 500000,
		Trace:       collectTrace(&probes),
	}

	res, err := Compress(req, pixelQualityEncoder{}, noScale)
	require.NoError(t, err)

	for _, p := range probes {
		if p.Size <= req.TargetBytes {
			assert.GreaterOrEqual(t, res.Quality, p.Quality,
				"returned quality must not be below a known-fitting probe")
		}
	}
}

func TestBudgetAlwaysRespected(t *testing.T) {
	for _, budget := range []int64{1000, 99999, 500000, 1 << 21} {
		req := Request{Image: testImage(100, 100), TargetBytes: budget, AutoScale: true}
		res, err := Compress(req, pixelQualityEncoder{}, shrinkBounds)
		if errors.Is(err, ErrUnreachable) {
			continue
		}
		require.NoError(t, err)
		assert.LessOrEqual(t, int64(len(res.Data)), budget, "budget %d", budget)
	}
}

func TestNoBudgetEncodesOnceAtDefaultQuality(t *testing.T) {
	var probes []Probe
	req := Request{Image: testImage(10, 10), Trace: collectTrace(&probes)}

	res, err := Compress(req, pixelQualityEncoder{}, noScale)
	require.NoError(t, err)
	assert.Equal(t, DefaultQuality, res.Quality)
	assert.Equal(t, 1.0, res.Scale)
	assert.Len(t, res.Data, 100*DefaultQuality)
	assert.Empty(t, probes, "the budget-free path performs no search")
}

func TestNoBudgetHonorsConfiguredQuality(t *testing.T) {
	req := Request{Image: testImage(10, 10), Quality: 75}

	res, err := Compress(req, pixelQualityEncoder{}, noScale)
	require.NoError(t, err)
	assert.Equal(t, 75, res.Quality)
	assert.Len(t, res.Data, 100*75)
}

func TestUnreachableWithoutAutoScale(t *testing.T) {
	// Minimum quality still encodes to 100000 bytes; the budget is
	// impossible and downscaling is not permitted.
	req := Request{Image: testImage(100, 100), TargetBytes: 50000}

	res, err := Compress(req, pixelQualityEncoder{}, noScale)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestFallbackFirstFitWins(t *testing.T) {
	// At full size the minimum-quality encoding is 100000 bytes, over
	// the 96000 budget, so the fallback engages. Scales down to 42x42
	// still miss at quality 60; at 35x35 (factor 0.95*0.85^6) the first
	// probe, quality 77, fits — and so does 78, which a best-quality
	// search would have gone on to find.
	var probes []Probe
	req := Request{
		Image:       testImage(100, 100),
		TargetBytes: 96000,
		AutoScale:   true,
		Trace:       collectTrace(&probes),
	}

	res, err := Compress(req, pixelQualityEncoder{}, shrinkBounds)
	require.NoError(t, err)

	assert.Equal(t, 77, res.Quality, "inner search stops at the first fitting probe")
	assert.InDelta(t, 0.3583, res.Scale, 0.001)
	assert.LessOrEqual(t, int64(len(res.Data)), req.TargetBytes)

	// The winning probe is the last one traced.
	last := probes[len(probes)-1]
	assert.Equal(t, res.Quality, last.Quality)
	assert.Equal(t, res.Scale, last.Scale)
}

func TestFallbackScaleIsOnSchedule(t *testing.T) {
	req := Request{
		Image:       testImage(100, 100),
		TargetBytes: 96000,
		AutoScale:   true,
	}

	res, err := Compress(req, pixelQualityEncoder{}, shrinkBounds)
	require.NoError(t, err)

	assert.Greater(t, res.Scale, 0.30)
	assert.LessOrEqual(t, res.Scale, 0.95)

	onSchedule := false
	for factor := 0.95; factor > 0.30; factor *= 0.85 {
		if factor == res.Scale {
			onSchedule = true
			break
		}
	}
	assert.True(t, onSchedule, "scale %v is not a member of the geometric schedule", res.Scale)
}

func TestFallbackExhaustsScheduleThenUnreachable(t *testing.T) {
	var probes []Probe
	req := Request{
		Image:       testImage(100, 100),
		TargetBytes: 10,
		AutoScale:   true,
		Trace:       collectTrace(&probes),
	}

	res, err := Compress(req, fixedSizeEncoder{n: 11}, shrinkBounds)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnreachable)

	// Every fallback probe's scale must be a schedule member.
	var expected []float64
	for factor := 0.95; factor > 0.30; factor *= 0.85 {
		expected = append(expected, factor)
	}
	seen := make(map[float64]bool)
	for _, p := range probes {
		if p.Scale < 1.0 {
			seen[p.Scale] = true
			assert.Contains(t, expected, p.Scale)
		}
	}
	assert.Len(t, seen, len(expected), "the fallback must visit the full schedule before giving up")
}

func TestFallbackQualityStaysInNarrowRange(t *testing.T) {
	var probes []Probe
	req := Request{
		Image:       testImage(100, 100),
		TargetBytes: 10,
		AutoScale:   true,
		Trace:       collectTrace(&probes),
	}

	_, err := Compress(req, fixedSizeEncoder{n: 11}, shrinkBounds)
	assert.ErrorIs(t, err, ErrUnreachable)

	for _, p := range probes {
		if p.Scale < 1.0 {
			assert.GreaterOrEqual(t, p.Quality, 60)
			assert.LessOrEqual(t, p.Quality, 95)
		}
	}
}

func TestNonMonotoneEncoderStillRespectsBudget(t *testing.T) {
	// Encoded size dips at quality 80, violating monotonicity. The
	// search may return a suboptimal quality but never an over-budget
	// buffer.
	enc := encodeFunc(func(img image.Image, q int) ([]byte, error) {
		if q == 80 {
			return make([]byte, 10000), nil
		}
		return make([]byte, q*1000), nil
	})

	req := Request{Image: testImage(100, 100), TargetBytes: 60000}
	res, err := Compress(req, enc, noScale)
	require.NoError(t, err)
	assert.LessOrEqual(t, int64(len(res.Data)), req.TargetBytes)
}

func TestCompressIsDeterministic(t *testing.T) {
	req := Request{Image: testImage(64, 48), TargetBytes: 100000, AutoScale: true}

	first, err := Compress(req, pixelQualityEncoder{}, shrinkBounds)
	require.NoError(t, err)
	second, err := Compress(req, pixelQualityEncoder{}, shrinkBounds)
	require.NoError(t, err)

	assert.Equal(t, first.Quality, second.Quality)
	assert.Equal(t, first.Scale, second.Scale)
	assert.True(t, bytes.Equal(first.Data, second.Data))
}

func TestEncoderErrorPropagates(t *testing.T) {
	req := Request{Image: testImage(10, 10), TargetBytes: 1000}
	_, err := Compress(req, failingEncoder{}, noScale)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnreachable)
}

// encodeFunc adapts a function to the Encoder interface.
type encodeFunc func(img image.Image, quality int) ([]byte, error)

func (f encodeFunc) Encode(img image.Image, quality int) ([]byte, error) {
	return f(img, quality)
}
