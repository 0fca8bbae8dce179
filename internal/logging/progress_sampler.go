package logging

import "strings"

// ProgressSampler suppresses repetitive batch progress logs while still
// emitting when the operation changes or completion crosses a percentage bucket.
type ProgressSampler struct {
	bucketSize    float64
	lastOperation string
	lastBucket    int
}

// NewProgressSampler constructs a sampler that emits when completion crosses
// bucket boundaries (default 10%) or when the operation changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether progress of done out of total items should be
// logged. A total of zero or less is treated as unknown and only operation
// changes emit.
func (s *ProgressSampler) ShouldLog(done, total int, operation string) bool {
	if s == nil {
		return true
	}
	operation = strings.TrimSpace(operation)
	emit := false
	if operation != "" && operation != s.lastOperation {
		s.lastOperation = operation
		s.lastBucket = -1
		emit = true
	}
	if total > 0 {
		percent := float64(done) * 100 / float64(total)
		bucket := int(percent / s.bucketSize)
		if done >= total {
			bucket = int(100 / s.bucketSize)
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state when a new job starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastOperation = ""
	s.lastBucket = -1
}
