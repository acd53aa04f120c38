package core

// EncoderBackend defines the hardware abstraction for quadrature decoding
// Implementations can use PIO or a software sampling loop
type EncoderBackend interface {
	// Init configures both phase pins as digital inputs and starts the
	// sampling context with the count at zero.
	// pinA: phase A input pin
	// pinB: phase B input pin
	// Returns an error only if a pin cannot be configured
	Init(pinA, pinB uint8) error

	// RequestCount asks the sampling context to publish the current
	// count on its next iteration. Non-blocking, side effect only.
	RequestCount()

	// TryTakeCount returns a published count if one is available since
	// the last take. Never blocks; unread values are overwritten by
	// later requests, never queued.
	TryTakeCount() (int32, bool)

	// Stop halts the sampling context and releases hardware resources
	Stop()

	// GetName returns backend implementation name
	GetName() string
}

// EncoderBackendInfo provides information about available backends
type EncoderBackendInfo struct {
	Name          string
	MaxEdgeRate   uint32 // Maximum detectable edge rate (edges/second)
	SampleLatency uint32 // Worst-case request-to-publish latency (ns)
	CPUOverhead   uint8  // CPU overhead percentage (0-100)
}

// Backend factory, set by target-specific code
var encoderBackendFactory func() EncoderBackend

// SetEncoderBackendFactory registers the factory used by config_encoder
// to create hardware backends. Targets with PIO register a PIO factory;
// others fall back to the software sampler.
func SetEncoderBackendFactory(factory func() EncoderBackend) {
	encoderBackendFactory = factory
}

func newEncoderBackend() EncoderBackend {
	if encoderBackendFactory != nil {
		if b := encoderBackendFactory(); b != nil {
			return b
		}
	}
	return nil
}
