package core

import "testing"

// driveQuadrature applies a 2-bit sample to the mock pins and runs one
// sampling iteration
func driveQuadrature(b *SoftEncoderBackend, gpio *MockGPIODriver, pins uint8) {
	gpio.SetInput(b.pinA, pins&0x1 != 0)
	gpio.SetInput(b.pinB, pins&0x2 != 0)
	b.sampleOnce()
}

func TestSoftSamplerCounts(t *testing.T) {
	gpio := NewMockGPIODriver()
	SetGPIODriver(gpio)

	b := NewSoftEncoderBackend()
	b.SetSampleInterval(0) // drive sampling manually
	if err := b.Init(2, 3); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	// Forward rotation: 00 -> 10 -> 11 -> 01 -> 00, one increment per step
	for _, s := range []uint8{0, 2, 3, 1, 0} {
		driveQuadrature(b, gpio, s)
	}

	b.RequestCount()
	driveQuadrature(b, gpio, 0) // NoOp iteration services the request

	count, ok := b.TryTakeCount()
	if !ok {
		t.Fatal("no count published after request")
	}
	if count != 4 {
		t.Errorf("forward rotation count = %d, want 4", count)
	}
}

func TestSoftSamplerInvalidPin(t *testing.T) {
	gpio := NewMockGPIODriver()
	SetGPIODriver(gpio)

	b := NewSoftEncoderBackend()
	if err := b.Init(99, 3); err == nil {
		t.Error("Init accepted unconfigurable phase A pin")
		b.Stop()
	}
	b2 := NewSoftEncoderBackend()
	if err := b2.Init(2, 99); err == nil {
		t.Error("Init accepted unconfigurable phase B pin")
		b2.Stop()
	}
}

func TestSoftSamplerIndependentInstances(t *testing.T) {
	gpio := NewMockGPIODriver()
	SetGPIODriver(gpio)

	a := NewSoftEncoderBackend()
	a.SetSampleInterval(0)
	if err := a.Init(2, 3); err != nil {
		t.Fatalf("Init a: %v", err)
	}
	b := NewSoftEncoderBackend()
	b.SetSampleInterval(0)
	if err := b.Init(4, 5); err != nil {
		t.Fatalf("Init b: %v", err)
	}

	fwd := []uint8{0, 2, 3, 1, 0, 2, 3, 1, 0}
	rev := []uint8{0, 1, 3, 2, 0, 1, 3, 2, 0}
	for i := range fwd {
		driveQuadrature(a, gpio, fwd[i])
		driveQuadrature(b, gpio, rev[i])
	}

	a.RequestCount()
	driveQuadrature(a, gpio, 0)
	b.RequestCount()
	driveQuadrature(b, gpio, 0)

	ca, ok := a.TryTakeCount()
	if !ok {
		t.Fatal("instance a published nothing")
	}
	cb, ok := b.TryTakeCount()
	if !ok {
		t.Fatal("instance b published nothing")
	}
	if ca != -cb || ca == 0 {
		t.Errorf("opposite rotations gave %d and %d", ca, cb)
	}
}

func TestSoftSamplerStopIsIdempotent(t *testing.T) {
	gpio := NewMockGPIODriver()
	SetGPIODriver(gpio)

	b := NewSoftEncoderBackend()
	if err := b.Init(2, 3); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	b.Stop()
	b.Stop() // second stop must not panic
}
