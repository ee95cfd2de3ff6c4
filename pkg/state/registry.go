package state

import (
	"hash/fnv"
	"sync"

	"github.com/yorkart/rlink-go/pkg/element"
)

// Entry is one key/value pair in a reducing state, returned by Entries
// when the caller needs to iterate a (typically just-detached) state.
type Entry struct {
	Key   *element.Record
	Value *element.Record
}

// ReducingState is the per-window keyed accumulator map: key -> current
// reduction result, both Records. It is documented, not enforced, to be
// accessed by a single goroutine at a time (the owning (chain, task)
// thread) -- the registry's sharding protects cross-instance concurrency,
// not concurrent access to one instance's own windows.
type ReducingState struct {
	kv map[string]Entry
}

func newReducingState(suggestedCapacity int) *ReducingState {
	if suggestedCapacity < 0 {
		suggestedCapacity = 0
	}
	return &ReducingState{kv: make(map[string]Entry, suggestedCapacity)}
}

func recordMapKey(r *element.Record) string {
	// Key equality is over the record's raw payload, so the map key must
	// be derived from the payload, not any other field.
	return string(r.RawPayload())
}

// Get returns the current value for key, if any.
func (s *ReducingState) Get(key *element.Record) (*element.Record, bool) {
	e, ok := s.kv[recordMapKey(key)]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// GetMut returns the stored value for read-modify-write reduction: the
// caller computes a new value from the old one and calls Insert with the
// merge result.
func (s *ReducingState) GetMut(key *element.Record) (*element.Record, bool) {
	return s.Get(key)
}

// Insert is an unconditional put, typically used once a merge function
// has produced a new accumulator value.
func (s *ReducingState) Insert(key, value *element.Record) {
	s.kv[recordMapKey(key)] = Entry{Key: key, Value: value}
}

// Entries returns a snapshot of the state's current key/value pairs, in
// unspecified order -- the Go analogue of borrowing a live iterator, since
// iteration here always happens after detachment (single-threaded, no
// concurrent mutation to invalidate against).
func (s *ReducingState) Entries() []Entry {
	out := make([]Entry, 0, len(s.kv))
	for _, e := range s.kv {
		out = append(out, e)
	}
	return out
}

// Len returns the number of keys currently held.
func (s *ReducingState) Len() int {
	return len(s.kv)
}

// Flush and Snapshot are no-ops for the in-memory backend; the contract
// exists so a durable backend can persist here without changing callers.
func (s *ReducingState) Flush()    {}
func (s *ReducingState) Snapshot() {}

// Close releases the state. Destroy additionally removes any persisted
// artifacts; both are no-ops for the in-memory backend.
func (s *ReducingState) Close()   {}
func (s *ReducingState) Destroy() {}

const shardCount = 16

type shard struct {
	mu        sync.RWMutex
	instances map[instanceKey]*instanceState
}

type instanceState struct {
	mu      sync.Mutex
	windows map[Window]*ReducingState
}

// Registry is the process-wide (in the sense of "one per task manager
// process") map of (chain, task) -> (window -> state). It is
// shard-striped on (chain, task) so independent operator instances can
// create and drop windows without contending on a single lock, while the
// spec's "(chain_id, task_number) is the ownership boundary" invariant is
// preserved: each instance's windows live behind their own mutex.
type Registry struct {
	shards [shardCount]*shard
}

// NewRegistry constructs an empty registry. There is no package-level
// instance: callers construct one Registry per task manager process and
// pass it to whatever code owns keyed state, per the "inject, don't
// globalize" resolution in DESIGN.md.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{instances: make(map[instanceKey]*instanceState)}
	}
	return r
}

func (r *Registry) shardFor(ik instanceKey) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte{byte(ik.chainID), byte(ik.chainID >> 8), byte(ik.chainID >> 16), byte(ik.chainID >> 24), byte(ik.taskNumber), byte(ik.taskNumber >> 8)})
	return r.shards[h.Sum32()%shardCount]
}

func (r *Registry) instanceFor(ik instanceKey, create bool) *instanceState {
	sh := r.shardFor(ik)

	sh.mu.RLock()
	inst, ok := sh.instances[ik]
	sh.mu.RUnlock()
	if ok || !create {
		return inst
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if inst, ok = sh.instances[ik]; ok {
		return inst
	}
	inst = &instanceState{windows: make(map[Window]*ReducingState)}
	sh.instances[ik] = inst
	return inst
}

// GetOrCreateState returns the live state for key's window, creating it
// (with the suggested initial capacity hint, which implementations may
// ignore) if this is the first record seen for that window.
func (r *Registry) GetOrCreateState(key Key, suggestedCapacity int) *ReducingState {
	ik := instanceKey{chainID: key.ChainID, taskNumber: key.TaskNumber}
	inst := r.instanceFor(ik, true)

	inst.mu.Lock()
	defer inst.mu.Unlock()
	s, ok := inst.windows[key.Window]
	if !ok {
		s = newReducingState(suggestedCapacity)
		inst.windows[key.Window] = s
	}
	return s
}

// GetState returns the live state for key's window without creating one.
func (r *Registry) GetState(key Key) (*ReducingState, bool) {
	ik := instanceKey{chainID: key.ChainID, taskNumber: key.TaskNumber}
	inst := r.instanceFor(ik, false)
	if inst == nil {
		return nil, false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	s, ok := inst.windows[key.Window]
	return s, ok
}

// RemoveDropWindow atomically detaches key's window state from the live
// registry and returns ownership of it, so the caller can iterate it to
// emit aggregates downstream. It is single-shot: a second call for the
// same Key returns (nil, false), since the window has already been
// drained. In-flight-but-late events addressing an already-dropped window
// simply observe this false return and are dropped silently by the
// caller.
func (r *Registry) RemoveDropWindow(key Key) (*ReducingState, bool) {
	ik := instanceKey{chainID: key.ChainID, taskNumber: key.TaskNumber}
	inst := r.instanceFor(ik, false)
	if inst == nil {
		return nil, false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	s, ok := inst.windows[key.Window]
	if !ok {
		return nil, false
	}
	delete(inst.windows, key.Window)
	return s, true
}
