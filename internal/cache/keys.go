package cache

import "fmt"

// Key identifies a cached scorer by the workload shape it was trained
// for: detection domain, resolved feature count, and a batch-size
// bucket (the next power of two of the batch length, so similarly sized
// batches share an entry while the path-length normalization stays
// comparable).
type Key struct {
	Domain       string
	FeatureCount int
	BatchBucket  int
}

func (k Key) String() string {
	return fmt.Sprintf("%s_%d_%d", k.Domain, k.FeatureCount, k.BatchBucket)
}

// BatchBucket rounds n up to the next power of two (minimum 1).
func BatchBucket(n int) int {
	b := 1
	for b < n {
		b <<= 1
	}
	return b
}
