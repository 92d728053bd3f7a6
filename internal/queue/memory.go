package queue

// MemoryQueue is an in-memory FIFO queue with a companion key set.
// The key set mirrors the queued items so membership checks are O(1) while
// items keep their discovery order. It is not safe for concurrent use.
type MemoryQueue struct {
	items []*QueueItem
	head  int
	keys  map[string]struct{}
}

// NewMemoryQueue creates a new in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		items: make([]*QueueItem, 0, 64),
		keys:  make(map[string]struct{}),
	}
}

// Push appends an item to the tail of the queue.
// Items whose key is already queued are ignored. It reports whether the
// item was added.
func (mq *MemoryQueue) Push(item *QueueItem) bool {
	key := item.Key
	if key == "" {
		key = item.URL
	}
	if _, exists := mq.keys[key]; exists {
		return false
	}

	item.Key = key
	mq.keys[key] = struct{}{}
	mq.items = append(mq.items, item)
	return true
}

// Pop removes and returns the head of the queue.
func (mq *MemoryQueue) Pop() (*QueueItem, error) {
	if mq.head >= len(mq.items) {
		return nil, ErrQueueEmpty
	}

	item := mq.items[mq.head]
	mq.items[mq.head] = nil
	mq.head++
	delete(mq.keys, item.Key)
	mq.compact()
	return item, nil
}

// compact drops the consumed prefix once it dominates the backing slice.
func (mq *MemoryQueue) compact() {
	if mq.head < 1024 || mq.head*2 < len(mq.items) {
		return
	}
	remaining := make([]*QueueItem, len(mq.items)-mq.head, cap(mq.items)-mq.head)
	copy(remaining, mq.items[mq.head:])
	mq.items = remaining
	mq.head = 0
}

// Len returns the number of items in the queue.
func (mq *MemoryQueue) Len() int {
	return len(mq.items) - mq.head
}

// Contains checks if an item with the given key is queued.
func (mq *MemoryQueue) Contains(key string) bool {
	_, exists := mq.keys[key]
	return exists
}

// URLs returns the raw URLs currently queued, head first.
func (mq *MemoryQueue) URLs() []string {
	urls := make([]string, 0, mq.Len())
	for _, item := range mq.items[mq.head:] {
		urls = append(urls, item.URL)
	}
	return urls
}
