package player

import (
	"sync/atomic"

	"github.com/drgolem/stretchplayer/pkg/types"
)

// Re-export common ringbuffer errors for queue callers
var (
	ErrInsufficientSpace = types.ErrInsufficientSpace
	ErrInsufficientData  = types.ErrInsufficientData
)

type paramKind uint8

const (
	paramSpeed paramKind = iota
	paramPitch
)

// paramUpdate carries one hot-parameter change from the control path to the
// render callback.
type paramUpdate struct {
	kind  paramKind
	value float32
}

// paramRing is a lock-free single-producer single-consumer ring buffer for
// parameter updates. It decouples control-path writes (UI frame rate) from the
// audio clock: the render callback drains it once per buffer and applies the
// most recent value of each parameter, so the hot path never reads contended
// shared floats mid-buffer.
//
// Thread safety:
//   - push() must only be called by the producer (control) thread
//   - pop() must only be called by the consumer (render) thread
//
// The buffer capacity is rounded up to the next power of 2 for efficient
// modulo operations using bitwise AND.
type paramRing struct {
	buffer   []paramUpdate
	size     uint64 // must be power of 2
	mask     uint64 // size - 1, for efficient modulo
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// newParamRing creates a ring with the given capacity (number of updates).
// Capacity will be rounded up to the next power of 2.
func newParamRing(capacity uint64) *paramRing {
	capacity = nextPowerOf2(capacity)

	return &paramRing{
		buffer: make([]paramUpdate, capacity),
		size:   capacity,
		mask:   capacity - 1,
	}
}

// push appends one update. Returns ErrInsufficientSpace when the ring is full;
// the caller drops the update (the consumer drains everything each callback,
// so a full ring means the stream is stalled anyway).
func (rb *paramRing) push(u paramUpdate) error {
	writePos := rb.writePos.Load()
	if writePos-rb.readPos.Load() >= rb.size {
		return ErrInsufficientSpace
	}

	rb.buffer[writePos&rb.mask] = u
	rb.writePos.Store(writePos + 1)
	return nil
}

// pop removes and returns the oldest update, or ok=false when empty.
func (rb *paramRing) pop() (paramUpdate, bool) {
	readPos := rb.readPos.Load()
	if readPos == rb.writePos.Load() {
		return paramUpdate{}, false
	}

	u := rb.buffer[readPos&rb.mask]
	rb.readPos.Store(readPos + 1)
	return u, true
}

// availableRead returns the number of pending updates.
func (rb *paramRing) availableRead() uint64 {
	return rb.writePos.Load() - rb.readPos.Load()
}

// nextPowerOf2 rounds up to the next power of 2
func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
