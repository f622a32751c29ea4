// Package resizer drives batch image resizing: it discovers input
// images, dispatches the size-targeted compression engine over them
// (sequentially or with a worker pool) and collects per-file results.
package resizer

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"img-resizer-go/internal/sizetarget"
	"img-resizer-go/internal/statistics"

	"github.com/sirupsen/logrus"
)

// ErrNoImages indicates that the input path yielded no image files.
var ErrNoImages = errors.New("no image files found")

// Options configures a batch resize run.
type Options struct {
	InputPath           string
	TargetSizeKB        int64 // 0 means no byte budget
	Width, Height       int   // 0,0 means no dimension resize
	OutputDir           string
	MaintainAspectRatio bool
	AutoScale           bool
	Parallel            bool
	Workers             int // 0 means NumCPU
	Verbose             bool
	DefaultQuality      int    // quality for the budget-free path; 0 means the engine default
	OutputDirName       string // default sibling directory name
	OutputSuffix        string // appended to the file stem
}

// FileResult describes the outcome of processing a single input image.
type FileResult struct {
	InputPath    string
	OutputPath   string
	OriginalSize int64
	FinalSize    int64
	Success      bool
	Message      string
}

// Resizer processes a batch of images according to its options.
type Resizer struct {
	opts       Options
	log        *logrus.Logger
	stats      *statistics.Statistics
	onProgress func(FileResult)
}

// New returns a Resizer with defaults applied.
func New(opts Options, log *logrus.Logger, stats *statistics.Statistics) *Resizer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.OutputDirName == "" {
		opts.OutputDirName = "resized"
	}
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = "_resized"
	}
	if log == nil {
		log = logrus.New()
	}
	if stats == nil {
		stats = statistics.NewStatistics()
	}
	return &Resizer{opts: opts, log: log, stats: stats}
}

// SetProgressFunc registers a callback invoked once per completed file.
// With parallel processing the callback may run from multiple
// goroutines; registration must happen before Process.
func (r *Resizer) SetProgressFunc(fn func(FileResult)) {
	r.onProgress = fn
}

// Run discovers input images and processes them all.
func (r *Resizer) Run() ([]FileResult, error) {
	files, err := CollectImages(r.opts.InputPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}
	return r.Process(files), nil
}

// Process resizes the given files and returns one result per input.
// Per-file failures never abort the batch; they surface as results with
// Success set to false.
func (r *Resizer) Process(files []string) []FileResult {
	r.stats.SetFilesFound(int64(len(files)))

	var results []FileResult
	if r.opts.Parallel && len(files) > 1 {
		results = r.processParallel(files)
	} else {
		results = make([]FileResult, len(files))
		for i, path := range files {
			results[i] = r.processOne(path)
			r.record(results[i])
		}
	}

	r.stats.Finalize()
	return results
}

// processParallel fans the files out over a worker pool. Results land
// in an index-addressed slice so no ordering is imposed on completion.
func (r *Resizer) processParallel(files []string) []FileResult {
	type job struct {
		index int
		path  string
	}

	jobs := make(chan job, len(files))
	results := make([]FileResult, len(files))

	var wg sync.WaitGroup
	wg.Add(r.opts.Workers)
	for w := 0; w < r.opts.Workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = r.processOne(j.path)
				r.record(results[j.index])
			}
		}()
	}

	for i, path := range files {
		jobs <- job{index: i, path: path}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (r *Resizer) record(res FileResult) {
	r.stats.IncrementFilesProcessed()
	r.stats.IncrementFileType(strings.ToLower(filepath.Ext(res.InputPath)))
	if res.Success {
		r.stats.IncrementFilesSucceeded()
		r.stats.AddBytes(res.OriginalSize, res.FinalSize)
	} else {
		r.stats.IncrementFilesFailed()
		r.stats.AddError(res.InputPath, res.Message)
	}
	if r.onProgress != nil {
		r.onProgress(res)
	}
}

// traceFunc routes engine probes to the debug log when verbose.
func (r *Resizer) traceFunc(path string) sizetarget.TraceFunc {
	if !r.opts.Verbose {
		return nil
	}
	entry := r.log.WithField("file", filepath.Base(path))
	return func(p sizetarget.Probe) {
		entry.Debugf("probe scale %.0f%%, quality %d: %d KB", p.Scale*100, p.Quality, p.Size/1024)
	}
}

// Summary aggregates a result set for reporting.
type Summary struct {
	Successful    int
	Failed        int
	TotalOriginal int64
	TotalFinal    int64
	TotalSaved    int64
}

// Summarize computes the batch summary. Result order is irrelevant.
func Summarize(results []FileResult) Summary {
	var s Summary
	for _, res := range results {
		s.TotalOriginal += res.OriginalSize
		if res.Success {
			s.Successful++
			s.TotalFinal += res.FinalSize
		} else {
			s.Failed++
		}
	}
	if saved := s.TotalOriginal - s.TotalFinal; saved > 0 {
		s.TotalSaved = saved
	}
	return s
}

// ReductionPercent returns the percentage of bytes saved.
func (s Summary) ReductionPercent() float64 {
	if s.TotalOriginal == 0 {
		return 0
	}
	return float64(s.TotalSaved) / float64(s.TotalOriginal) * 100
}

func failure(input string, originalSize int64, format string, args ...interface{}) FileResult {
	return FileResult{
		InputPath:    input,
		OriginalSize: originalSize,
		Success:      false,
		Message:      fmt.Sprintf(format, args...),
	}
}
