package state

import (
	"sort"

	"github.com/bits-and-blooms/bloom/v3"
)

// falsePositiveRate bounds bloom filter false positives; Has confirms
// every filter hit against the exact set.
const falsePositiveRate = 0.001

// ProcessedSet holds the dedup keys of every URL that has been handled,
// in this run or a previous one. Keys are never evicted.
//
// A Bloom filter answers most negative lookups; the exact set resolves
// the filter's false positives. It is not safe for concurrent use.
type ProcessedSet struct {
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// NewProcessedSet creates a set sized for roughly estimatedItems keys.
func NewProcessedSet(estimatedItems int) *ProcessedSet {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}

	return &ProcessedSet{
		filter: bloom.NewWithEstimates(uint(estimatedItems), falsePositiveRate),
		exact:  make(map[string]struct{}),
	}
}

// Add records a key. It reports whether the key was new.
func (s *ProcessedSet) Add(key string) bool {
	if _, exists := s.exact[key]; exists {
		return false
	}
	s.filter.AddString(key)
	s.exact[key] = struct{}{}
	return true
}

// AddBatch records multiple keys at once and returns how many were new.
func (s *ProcessedSet) AddBatch(keys []string) int {
	added := 0
	for _, key := range keys {
		if s.Add(key) {
			added++
		}
	}
	return added
}

// Has checks if a key has been recorded.
func (s *ProcessedSet) Has(key string) bool {
	// Fast check with Bloom filter
	if !s.filter.TestString(key) {
		return false
	}

	_, exists := s.exact[key]
	return exists
}

// Len returns the number of recorded keys.
func (s *ProcessedSet) Len() int {
	return len(s.exact)
}

// Sorted returns all keys in ascending order.
func (s *ProcessedSet) Sorted() []string {
	keys := make([]string, 0, len(s.exact))
	for key := range s.exact {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
