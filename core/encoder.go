// Quadrature encoder objects and their host-facing commands
// Each configured encoder owns a hardware backend (PIO state machine or
// software sampler) plus the timers used to report counts to the host
package core

import (
	"errors"

	"goqei/protocol"
)

// Encoder flags
const (
	EF_REPORTING = 1 << 0 // Periodic reporting active
)

// Ticks between hand-off polls. The PIO backend publishes within 18 sysclk
// cycles of a request, so a single short poll interval is enough; the
// software sampler needs up to one sampling period.
const encoderPollTicks = 50

// Polls before an unserviced request is abandoned (backend stopped or
// sampling context wedged)
const encoderPollLimit = 100

// Encoder represents a configured quadrature encoder input pair
type Encoder struct {
	OID  uint8 // Object ID
	PinA uint8 // Phase A input pin
	PinB uint8 // Phase B input pin

	Flags     uint8
	RestTicks uint32 // Interval between periodic reports (0 = off)
	NextWake  uint32 // Next scheduled periodic report
	PollCount uint8  // Hand-off polls since the current request

	// Set while the corresponding timer is linked into the scheduler.
	// Re-inserting a linked timer would corrupt the sorted timer list,
	// so repeated commands only refresh the encoder state and let the
	// running timer pick it up.
	CountArmed  bool
	ReportArmed bool

	// Timers for the asynchronous count hand-off
	CountTimer  Timer // One-shot encoder_request_count servicing
	ReportTimer Timer // Periodic query_encoder reporting

	// Hardware backend
	Backend EncoderBackend
}

// Global registry of encoders
var encoders = make(map[uint8]*Encoder)

var errNoEncoderBackend = errors.New("no encoder backend available")

// InitEncoderCommands registers encoder-related commands
func InitEncoderCommands() {
	// Command to configure an encoder on a pair of input pins
	RegisterCommand("config_encoder", "oid=%c pin_a=%u pin_b=%u", handleConfigEncoder)

	// Command to request a single count read
	RegisterCommand("encoder_request_count", "oid=%c", handleEncoderRequestCount)

	// Command to start/stop periodic count reporting
	RegisterCommand("query_encoder", "oid=%c clock=%u rest_ticks=%u", handleQueryEncoder)

	// Response: single count read
	RegisterResponse("encoder_count", "oid=%c count=%i")

	// Response: periodic count report
	RegisterResponse("encoder_state", "oid=%c count=%i clock=%u")
}

// handleConfigEncoder configures a quadrature encoder
// Format: config_encoder oid=%c pin_a=%u pin_b=%u
func handleConfigEncoder(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	pinA, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	pinB, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	backend := newEncoderBackend()
	if backend == nil {
		return errNoEncoderBackend
	}

	// The only reportable error: a pin that cannot be configured as an
	// input (or no free state machine). Everything after Init is
	// defined behavior, not an error.
	if err := backend.Init(uint8(pinA), uint8(pinB)); err != nil {
		backend.Stop()
		return err
	}

	// Replacing an existing OID stops its sampling context first
	if old, exists := encoders[uint8(oid)]; exists && old.Backend != nil {
		old.Backend.Stop()
	}

	encoders[uint8(oid)] = &Encoder{
		OID:     uint8(oid),
		PinA:    uint8(pinA),
		PinB:    uint8(pinB),
		Backend: backend,
	}

	return nil
}

// handleEncoderRequestCount services a one-shot count read
// Format: encoder_request_count oid=%c
func handleEncoderRequestCount(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	enc, exists := encoders[uint8(oid)]
	if !exists {
		// Invalid OID - encoder not configured
		return nil
	}

	// Ask the sampling context for the count, then poll the hand-off
	// slot from a timer. The request itself never blocks.
	enc.Backend.RequestCount()
	enc.PollCount = 0

	if enc.CountArmed {
		// Poll timer still scheduled from an earlier request; it will
		// take and report the fresh count
		return nil
	}
	enc.CountArmed = true

	enc.CountTimer.Next = nil
	enc.CountTimer.WakeTime = GetTime() + encoderPollTicks
	enc.CountTimer.Handler = encoderCountEvent
	ScheduleTimer(&enc.CountTimer)

	return nil
}

// handleQueryEncoder starts or stops periodic count reporting
// Format: query_encoder oid=%c clock=%u rest_ticks=%u
func handleQueryEncoder(data *[]byte) error {
	oid, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	clock, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	restTicks, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}

	enc, exists := encoders[uint8(oid)]
	if !exists {
		return nil
	}

	enc.RestTicks = restTicks
	if restTicks == 0 {
		// Stop reporting; an in-flight timer sees the cleared flag
		enc.Flags &^= EF_REPORTING
		return nil
	}

	enc.Flags |= EF_REPORTING
	enc.NextWake = clock

	if enc.ReportArmed {
		// Report timer already running; the new cadence takes effect
		// from its next cycle
		return nil
	}
	enc.ReportArmed = true

	enc.ReportTimer.Next = nil
	enc.ReportTimer.WakeTime = clock
	enc.ReportTimer.Handler = encoderReportEvent
	ScheduleTimer(&enc.ReportTimer)

	return nil
}

// encoderCountEvent polls the hand-off slot for a one-shot read
func encoderCountEvent(t *Timer) uint8 {
	enc := encoderByCountTimer(t)
	if enc == nil {
		return SF_DONE
	}

	count, ok := enc.Backend.TryTakeCount()
	if !ok {
		enc.PollCount++
		if enc.PollCount >= encoderPollLimit {
			// Sampling context never answered; drop the request
			enc.CountArmed = false
			return SF_DONE
		}
		t.WakeTime = GetTime() + encoderPollTicks
		return SF_RESCHEDULE
	}

	RecordTiming(EvtCountTake, enc.OID, GetTime(), uint32(count), 0)

	SendResponse("encoder_count", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(enc.OID))
		protocol.EncodeVLQInt(output, count)
	})

	enc.CountArmed = false
	return SF_DONE
}

// encoderReportEvent issues the periodic count request, then hands the
// timer to encoderReportTakeEvent to collect and send the value
func encoderReportEvent(t *Timer) uint8 {
	enc := encoderByReportTimer(t)
	if enc == nil {
		return SF_DONE
	}

	if (enc.Flags & EF_REPORTING) == 0 {
		enc.ReportArmed = false
		return SF_DONE
	}

	enc.Backend.RequestCount()
	enc.PollCount = 0
	RecordTiming(EvtCountRequest, enc.OID, GetTime(), 0, 0)

	t.WakeTime = GetTime() + encoderPollTicks
	t.Handler = encoderReportTakeEvent
	return SF_RESCHEDULE
}

// encoderReportTakeEvent collects the published count and sends the
// periodic encoder_state report
func encoderReportTakeEvent(t *Timer) uint8 {
	enc := encoderByReportTimer(t)
	if enc == nil {
		return SF_DONE
	}

	if (enc.Flags & EF_REPORTING) == 0 {
		enc.ReportArmed = false
		return SF_DONE
	}

	count, ok := enc.Backend.TryTakeCount()
	if !ok {
		enc.PollCount++
		if enc.PollCount >= encoderPollLimit {
			// Skip this report cycle rather than stall the schedule
			RecordTiming(EvtReportSkip, enc.OID, GetTime(), 0, 0)
			enc.NextWake += enc.RestTicks
			t.WakeTime = enc.NextWake
			t.Handler = encoderReportEvent
			return SF_RESCHEDULE
		}
		t.WakeTime = GetTime() + encoderPollTicks
		return SF_RESCHEDULE
	}

	clock := GetTime()
	SendResponse("encoder_state", func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, uint32(enc.OID))
		protocol.EncodeVLQInt(output, count)
		protocol.EncodeVLQUint(output, clock)
	})

	// Schedule the next report relative to the previous one so the
	// cadence does not drift with hand-off latency
	enc.NextWake += enc.RestTicks
	t.WakeTime = enc.NextWake
	t.Handler = encoderReportEvent
	return SF_RESCHEDULE
}

func encoderByCountTimer(t *Timer) *Encoder {
	for _, enc := range encoders {
		if enc != nil && &enc.CountTimer == t {
			return enc
		}
	}
	return nil
}

func encoderByReportTimer(t *Timer) *Encoder {
	for _, enc := range encoders {
		if enc != nil && &enc.ReportTimer == t {
			return enc
		}
	}
	return nil
}

// ShutdownAllEncoders stops periodic reporting on all encoders
// Called from the global shutdown handler. The sampling contexts keep
// running: the decoder itself has no error states to recover from.
func ShutdownAllEncoders() {
	for _, enc := range encoders {
		if enc != nil {
			enc.Flags &^= EF_REPORTING
		}
	}
}

// GetEncoder returns a configured encoder by OID (for tests and targets)
func GetEncoder(oid uint8) (*Encoder, bool) {
	enc, ok := encoders[oid]
	return enc, ok
}
