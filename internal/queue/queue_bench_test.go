package queue

import (
	"fmt"
	"testing"
)

func BenchmarkMemoryQueuePush(b *testing.B) {
	q := NewMemoryQueue()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		u := fmt.Sprintf("https://example.com/page/%d", i)
		q.Push(&QueueItem{URL: u, Key: u})
	}
}

func BenchmarkMemoryQueuePop(b *testing.B) {
	q := NewMemoryQueue()
	for i := 0; i < b.N; i++ {
		u := fmt.Sprintf("https://example.com/page/%d", i)
		q.Push(&QueueItem{URL: u, Key: u})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Pop()
	}
}

func BenchmarkMemoryQueueContains(b *testing.B) {
	q := NewMemoryQueue()
	for i := 0; i < 100000; i++ {
		u := fmt.Sprintf("https://example.com/page/%d", i)
		q.Push(&QueueItem{URL: u, Key: u})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Contains(fmt.Sprintf("https://example.com/page/%d", i%200000))
	}
}
