// Package offset implements the source offset cache: the last-committed
// read position per (topic, partition), consulted on source restart to
// decide where to resume.
package offset

import (
	"fmt"
	"sync"
)

// Sentinel raw encodings for an offset policy, mirroring Kafka's own
// special offset values -- a source connector requests one of these when
// it has no cached position to fall back to.
const (
	OffsetBeginning int64 = -2
	OffsetEnd       int64 = -1
	OffsetInvalid   int64 = -1001
)

// PartitionMetadata identifies one partition of one topic.
type PartitionMetadata struct {
	Topic     string
	Partition int32
}

func (p PartitionMetadata) String() string {
	return fmt.Sprintf("%s-%d", p.Topic, p.Partition)
}

// OffsetMetadata pairs a partition with a committed (or synthetic
// default) offset.
type OffsetMetadata struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Cache is the in-memory offset store: a plain map behind a mutex. Each
// partition has a single writer -- the source task reading it; the
// mutex exists to guard the read path used by snapshotting from a
// different goroutine, not to arbitrate concurrent writers.
type Cache struct {
	mu     sync.Mutex
	stored map[PartitionMetadata]int64
}

// NewCache returns an empty offset cache.
func NewCache() *Cache {
	return &Cache{stored: make(map[PartitionMetadata]int64)}
}

// Update records the offset last read for (topic, partition).
func (c *Cache) Update(topic string, partition int32, offsetValue int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored[PartitionMetadata{Topic: topic, Partition: partition}] = offsetValue
}

// Get returns the cached offset for (topic, partition); if none has been
// recorded yet, it returns a synthetic OffsetMetadata carrying
// defaultOffset's raw encoding instead of an error. A previously recorded
// offset always wins over the default, and a miss never errors.
func (c *Cache) Get(topic string, partition int32, defaultOffset int64) OffsetMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.stored[PartitionMetadata{Topic: topic, Partition: partition}]; ok {
		return OffsetMetadata{Topic: topic, Partition: partition, Offset: v}
	}
	return OffsetMetadata{Topic: topic, Partition: partition, Offset: defaultOffset}
}

// Snapshot returns a copy of the entire cache, safe for the caller to
// range over without holding the Cache's lock.
func (c *Cache) Snapshot() map[PartitionMetadata]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[PartitionMetadata]int64, len(c.stored))
	for k, v := range c.stored {
		out[k] = v
	}
	return out
}
