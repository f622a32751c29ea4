package sizetarget

// searchQuality binary-searches [QualityMin, QualityMax] for the
// highest quality whose encoded size fits the budget. A fitting probe
// is recorded as the candidate and the search continues upward; a probe
// over budget lowers the upper bound. Returns nil when no probe fit.
//
// Only the most recently accepted probe is kept. A non-monotone encoder
// can therefore yield a suboptimal, still budget-compliant answer; that
// approximation is intentional.
func searchQuality(req Request, enc Encoder) (*Result, error) {
	low, high := QualityMin, QualityMax
	var best *Result

	for low <= high {
		mid := (low + high) / 2
		data, err := enc.Encode(req.Image, mid)
		if err != nil {
			return nil, err
		}
		size := int64(len(data))
		req.trace(Probe{Quality: mid, Scale: 1.0, Size: size})

		if size <= req.TargetBytes {
			best = &Result{Data: data, Quality: mid, Scale: 1.0}
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return best, nil
}

// fallbackSearch drives the downscale-and-retry loop: shrink the image
// through a geometric scale schedule and re-search quality at each
// step. The inner search runs over [fallbackQualityMin, QualityMax] and
// returns the first fitting probe rather than continuing toward the
// best quality at that scale; at a reduced scale a fast acceptable
// answer beats further probing. Returns nil when the schedule is
// exhausted without a fit.
func fallbackSearch(req Request, enc Encoder, scale ScaleFunc) (*Result, error) {
	for factor := scaleStart; factor > scaleFloor; factor *= scaleStep {
		scaled := scale(req.Image, factor)

		low, high := fallbackQualityMin, QualityMax
		for low <= high {
			mid := (low + high) / 2
			data, err := enc.Encode(scaled, mid)
			if err != nil {
				return nil, err
			}
			size := int64(len(data))
			req.trace(Probe{Quality: mid, Scale: factor, Size: size})

			if size <= req.TargetBytes {
				return &Result{Data: data, Quality: mid, Scale: factor}, nil
			}
			high = mid - 1
		}
	}
	return nil, nil
}
