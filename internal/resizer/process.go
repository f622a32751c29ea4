package resizer

import (
	"errors"
	"fmt"
	"os"

	"img-resizer-go/internal/imageio"
	"img-resizer-go/internal/sizetarget"
)

// processOne runs the full pipeline for a single input image. Every
// error is converted into a failed FileResult here; nothing propagates
// to the batch level.
func (r *Resizer) processOne(inputPath string) FileResult {
	info, err := os.Stat(inputPath)
	if err != nil {
		return failure(inputPath, 0, "failed to read file metadata: %v", err)
	}
	originalSize := info.Size()

	img, err := imageio.Decode(inputPath)
	if err != nil {
		return failure(inputPath, originalSize, "failed to decode image: %v", err)
	}

	if r.opts.Width > 0 && r.opts.Height > 0 {
		img = imageio.ResizeTo(img, r.opts.Width, r.opts.Height, r.opts.MaintainAspectRatio)
	}

	outputPath, err := r.outputPath(inputPath)
	if err != nil {
		return failure(inputPath, originalSize, "%v", err)
	}

	format, err := imageio.FormatFromPath(outputPath)
	if err != nil {
		return failure(inputPath, originalSize, "%v", err)
	}

	req := sizetarget.Request{
		Image:       img,
		TargetBytes: r.opts.TargetSizeKB * 1024,
		Quality:     r.opts.DefaultQuality,
		AutoScale:   r.opts.AutoScale,
		Trace:       r.traceFunc(inputPath),
	}

	result, err := sizetarget.Compress(req, imageio.NewEncoder(format), imageio.ScaleBy)
	if err != nil {
		if errors.Is(err, sizetarget.ErrUnreachable) {
			msg := "could not reach target file size"
			if !r.opts.AutoScale {
				msg += " (enable auto-scale to allow downscaling)"
			}
			return failure(inputPath, originalSize, "%s", msg)
		}
		return failure(inputPath, originalSize, "encode failed: %v", err)
	}

	if err := os.WriteFile(outputPath, result.Data, 0644); err != nil {
		return failure(inputPath, originalSize, "failed to write output: %v", err)
	}

	res := FileResult{
		InputPath:    inputPath,
		OutputPath:   outputPath,
		OriginalSize: originalSize,
		FinalSize:    int64(len(result.Data)),
		Success:      true,
	}
	if req.TargetBytes > 0 {
		res.Message = fmt.Sprintf("quality %d, scale %.0f%%", result.Quality, result.Scale*100)
	}
	return res
}
