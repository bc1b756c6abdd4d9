package logger

import (
	"sync"
	"time"
)

// ProgressTracker tracks progress of long-running batch operations,
// logging at a fixed interval instead of per item.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	failed      int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// NewProgressTracker creates a tracker for an operation over total items
func NewProgressTracker(operation string, total int64, log Logger) *ProgressTracker {
	if log == nil {
		log = GetGlobalLogger()
	}

	tracker := &ProgressTracker{
		logger:      log.WithComponent("progress"),
		operation:   operation,
		total:       total,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: 5 * time.Second,
	}

	tracker.logger.WithFields(Fields{
		"operation": operation,
		"total":     total,
	}).Info("Starting operation")

	return tracker
}

// Increment records one processed item; failed marks it as an error
func (pt *ProgressTracker) Increment(failed bool) {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	pt.current++
	if failed {
		pt.failed++
	}

	if time.Since(pt.lastLogTime) >= pt.logInterval {
		pt.logProgressLocked()
		pt.lastLogTime = time.Now()
	}
}

// Done logs the final progress summary
func (pt *ProgressTracker) Done() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()

	pt.logger.WithFields(Fields{
		"operation": pt.operation,
		"processed": pt.current,
		"failed":    pt.failed,
		"duration":  time.Since(pt.startTime).String(),
	}).Info("Operation complete")
}

func (pt *ProgressTracker) logProgressLocked() {
	fields := Fields{
		"operation": pt.operation,
		"processed": pt.current,
		"failed":    pt.failed,
		"elapsed":   time.Since(pt.startTime).String(),
	}
	if pt.total > 0 {
		fields["percent"] = float64(pt.current) / float64(pt.total) * 100.0
	}
	pt.logger.WithFields(fields).Info("Progress")
}
