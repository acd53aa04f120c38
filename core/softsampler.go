// Software quadrature sampling backend
// Fallback for boards without PIO and the backend used in host-side tests.
// A dedicated goroutine samples both phase pins at a fixed cadence and
// feeds the decoder; the consumer surface is the same non-blocking
// request/take hand-off the PIO backend provides.
package core

import "time"

// Default sampling period. Edges faster than half this rate are missed;
// boards that need the full hardware rate use the PIO backend instead.
const softSampleInterval = 100 * time.Microsecond

// SoftEncoderBackend implements EncoderBackend with a sampling goroutine
type SoftEncoderBackend struct {
	dec      *Decoder
	pinA     GPIOPin
	pinB     GPIOPin
	interval time.Duration
	stop     chan struct{}
	running  bool
}

// NewSoftEncoderBackend creates a software sampling backend
func NewSoftEncoderBackend() *SoftEncoderBackend {
	return &SoftEncoderBackend{
		dec:      NewDecoder(),
		interval: softSampleInterval,
	}
}

// SetSampleInterval overrides the sampling cadence. Must be called
// before Init. An interval of 0 disables the sampling goroutine; the
// caller drives sampleOnce itself (used in tests).
func (b *SoftEncoderBackend) SetSampleInterval(d time.Duration) {
	b.interval = d
}

// Init configures both pins as inputs and starts the sampling goroutine
func (b *SoftEncoderBackend) Init(pinA, pinB uint8) error {
	b.pinA = GPIOPin(pinA)
	b.pinB = GPIOPin(pinB)

	if err := MustGPIO().ConfigureInput(b.pinA); err != nil {
		return err
	}
	if err := MustGPIO().ConfigureInput(b.pinB); err != nil {
		return err
	}

	b.stop = make(chan struct{})
	if b.interval > 0 {
		b.running = true
		go b.sampleLoop()
	}

	return nil
}

// sampleLoop is the sampling context. It never blocks on the consumer:
// each iteration reads the pins, updates the decoder and services at
// most one pending count request.
func (b *SoftEncoderBackend) sampleLoop() {
	for {
		select {
		case <-b.stop:
			return
		default:
		}
		b.sampleOnce()
		time.Sleep(b.interval)
	}
}

// sampleOnce performs a single sampling iteration
func (b *SoftEncoderBackend) sampleOnce() {
	gpio := MustGPIO()
	var pins uint8
	if gpio.ReadPin(b.pinA) {
		pins |= 0x1
	}
	if gpio.ReadPin(b.pinB) {
		pins |= 0x2
	}
	b.dec.Sample(pins)
}

// RequestCount asks the sampling goroutine to publish the count
func (b *SoftEncoderBackend) RequestCount() {
	b.dec.RequestCount()
}

// TryTakeCount takes a published count if available
func (b *SoftEncoderBackend) TryTakeCount() (int32, bool) {
	return b.dec.TryTakeCount()
}

// Stop halts the sampling goroutine
func (b *SoftEncoderBackend) Stop() {
	if b.running {
		close(b.stop)
		b.running = false
	}
}

// GetName returns the backend name
func (b *SoftEncoderBackend) GetName() string {
	return "soft"
}

// GetInfo returns backend performance information
func (b *SoftEncoderBackend) GetInfo() EncoderBackendInfo {
	return EncoderBackendInfo{
		Name:          "soft",
		MaxEdgeRate:   5000, // Half the 10kHz sampling rate
		SampleLatency: uint32(softSampleInterval.Nanoseconds()),
		CPUOverhead:   5,
	}
}
