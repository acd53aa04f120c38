// Quadrature decoder state machine
// Platform-independent core: the same transition table the PIO program
// executes in hardware, usable from tests and from the software sampler.
package core

import "sync/atomic"

// Quadrature transition table actions
const (
	ActNone      = int8(0)
	ActIncrement = int8(1)
	ActDecrement = int8(-1)
)

// quadTable maps a 4-bit transition key to a counter delta.
// Key = (previous 2-bit pin state << 2) | new 2-bit pin state.
// Invalid transitions (both bits flipping at once: 00<->11, 01<->10) are
// treated as no-ops, so electrical glitches never corrupt the count.
var quadTable = [16]int8{
	// prev=00
	ActNone, ActDecrement, ActIncrement, ActNone,
	// prev=01
	ActIncrement, ActNone, ActNone, ActDecrement,
	// prev=10
	ActDecrement, ActNone, ActNone, ActIncrement,
	// prev=11
	ActNone, ActIncrement, ActDecrement, ActNone,
}

// QuadratureAction returns the counter delta for a prev->new pin state
// transition (both values 2 bits)
func QuadratureAction(prev, new uint8) int8 {
	return quadTable[(prev&0x3)<<2|(new&0x3)]
}

// slot encoding: bit 32 = value present, low 32 bits = count
const slotValid = uint64(1) << 32

// Decoder maintains a running signed count from 2-bit pin samples and
// services asynchronous count requests without ever blocking.
//
// Concurrency contract (mirrors the PIO hardware hand-off):
//   - Sample() is called only from the sampling context. It owns the
//     counter and the previous pin state, and is the only writer that
//     clears the pending flag.
//   - RequestCount() and TryTakeCount() are called from the consumer
//     context. RequestCount is the only setter of the pending flag.
//   - The published value lives in a single latest-wins slot, never a
//     queue. An unconsumed value is overwritten by the next serviced
//     request.
type Decoder struct {
	count  int32 // owned by the sampling context
	prev   uint8 // last 2-bit pin state, owned by the sampling context
	seeded bool  // prev holds a real sample

	pending uint32 // atomic flag: set by consumer, cleared by sampler
	slot    uint64 // atomic cell: slotValid | uint32(count)
}

// NewDecoder returns a decoder with count zero and no sample history
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Sample performs one sampling iteration with the given 2-bit pin state
// (bit 0 = phase A, bit 1 = phase B). The first call only seeds the
// previous state, so it never moves the counter.
func (d *Decoder) Sample(pins uint8) {
	pins &= 0x3

	if !d.seeded {
		d.prev = pins
		d.seeded = true
	} else {
		d.count += int32(quadTable[d.prev<<2|pins])
		d.prev = pins
	}

	// Service a pending count request after the update so the published
	// value reflects this iteration
	if atomic.LoadUint32(&d.pending) != 0 {
		atomic.StoreUint32(&d.pending, 0)
		atomic.StoreUint64(&d.slot, slotValid|uint64(uint32(d.count)))
	}
}

// RequestCount asks the sampling context to publish the counter on its
// next iteration. Non-blocking; a request issued before the previous one
// was serviced overwrites rather than accumulates.
func (d *Decoder) RequestCount() {
	atomic.StoreUint32(&d.pending, 1)
}

// TryTakeCount returns the published count if one is available since the
// last take, clearing it. Never blocks.
func (d *Decoder) TryTakeCount() (int32, bool) {
	v := atomic.SwapUint64(&d.slot, 0)
	if v&slotValid == 0 {
		return 0, false
	}
	return int32(uint32(v)), true
}

// Count returns the current counter value. Only valid from the sampling
// context (or from tests that drive Sample directly); consumers must use
// the RequestCount/TryTakeCount hand-off.
func (d *Decoder) Count() int32 {
	return d.count
}
