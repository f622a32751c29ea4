// Package statistics aggregates batch-wide counters for a resize run.
// Counters are updated from concurrent workers via atomics; the error
// list is mutex-guarded.
package statistics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Statistics contains counters for one batch resize operation.
type Statistics struct {
	FilesFound     int64
	FilesProcessed int64
	FilesSucceeded int64
	FilesFailed    int64
	BytesOriginal  int64
	BytesFinal     int64

	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	FilesPerSecond float64

	FileTypeStats map[string]int64

	Errors []FileError

	mutex sync.RWMutex
}

// FileError records a per-file failure.
type FileError struct {
	FilePath  string
	Message   string
	Timestamp time.Time
}

// NewStatistics returns a Statistics with the start time set to now.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime:     time.Now(),
		FileTypeStats: make(map[string]int64),
	}
}

// SetFilesFound records the total number of discovered input images.
func (s *Statistics) SetFilesFound(n int64) {
	atomic.StoreInt64(&s.FilesFound, n)
}

// IncrementFilesProcessed increases the count of processed files by 1.
func (s *Statistics) IncrementFilesProcessed() {
	atomic.AddInt64(&s.FilesProcessed, 1)
}

// IncrementFilesSucceeded increases the count of successful files by 1.
func (s *Statistics) IncrementFilesSucceeded() {
	atomic.AddInt64(&s.FilesSucceeded, 1)
}

// IncrementFilesFailed increases the count of failed files by 1.
func (s *Statistics) IncrementFilesFailed() {
	atomic.AddInt64(&s.FilesFailed, 1)
}

// AddBytes records the original and final sizes of one processed file.
func (s *Statistics) AddBytes(original, final int64) {
	atomic.AddInt64(&s.BytesOriginal, original)
	atomic.AddInt64(&s.BytesFinal, final)
}

// IncrementFileType increases the count for a specific extension by 1.
func (s *Statistics) IncrementFileType(ext string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.FileTypeStats[ext]++
}

// AddError records a per-file failure.
func (s *Statistics) AddError(filePath, message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Errors = append(s.Errors, FileError{
		FilePath:  filePath,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// BytesSaved returns the total bytes saved by successful compressions.
func (s *Statistics) BytesSaved() int64 {
	saved := atomic.LoadInt64(&s.BytesOriginal) - atomic.LoadInt64(&s.BytesFinal)
	if saved < 0 {
		return 0
	}
	return saved
}

// Finalize computes duration-derived values. Call once after all
// workers have finished.
func (s *Statistics) Finalize() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)

	processed := atomic.LoadInt64(&s.FilesProcessed)
	if s.Duration.Seconds() > 0 {
		s.FilesPerSecond = float64(processed) / s.Duration.Seconds()
	}
}

// GetSummary returns a formatted summary of the batch.
func (s *Statistics) GetSummary() string {
	original := atomic.LoadInt64(&s.BytesOriginal)
	saved := s.BytesSaved()
	reduction := 0.0
	if original > 0 {
		reduction = float64(saved) / float64(original) * 100
	}

	return fmt.Sprintf(`Resize Summary:

Files:
		Found: %d
		Processed: %d
		Successful: %d
		Failed: %d

Size:
		Original: %s
		Final: %s
		Saved: %s (%.1f%% reduction)

Performance:
		Duration: %v
		Files/Second: %.2f`,
		atomic.LoadInt64(&s.FilesFound),
		atomic.LoadInt64(&s.FilesProcessed),
		atomic.LoadInt64(&s.FilesSucceeded),
		atomic.LoadInt64(&s.FilesFailed),
		formatBytes(original),
		formatBytes(atomic.LoadInt64(&s.BytesFinal)),
		formatBytes(saved),
		reduction,
		s.Duration.Round(time.Millisecond),
		s.FilesPerSecond,
	)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
