package core

import (
	"goqei/protocol"
)

// buildArgs encodes VLQ unsigned arguments the way they arrive in a
// decoded command frame
func buildArgs(vals ...uint32) []byte {
	output := protocol.NewScratchOutput()
	for _, v := range vals {
		protocol.EncodeVLQUint(output, v)
	}
	result := output.Result()
	frame := make([]byte, len(result))
	copy(frame, result)
	return frame
}

// captureOutput installs a fresh transport writing into the returned
// buffer so tests can inspect emitted response frames
func captureOutput() *protocol.ScratchOutput {
	output := protocol.NewScratchOutput()
	SetGlobalTransport(protocol.NewTransport(output, nil))
	return output
}

// parseFramePayloads splits raw transport output into frame payloads
// (the bytes between header and trailer of each message block)
func parseFramePayloads(data []byte) [][]byte {
	var payloads [][]byte
	for len(data) >= protocol.MessageMin {
		msgLen := int(data[0])
		if msgLen < protocol.MessageMin || msgLen > len(data) {
			break
		}
		payloads = append(payloads, data[protocol.MessageHeader:msgLen-protocol.MessageTrailer])
		data = data[msgLen:]
	}
	return payloads
}

// decodedResponse is a parsed MCU->host response frame
type decodedResponse struct {
	cmdID uint16
	args  []int32
}

// decodeResponses parses every response payload into command ID plus
// VLQ-decoded arguments
func decodeResponses(data []byte) []decodedResponse {
	var out []decodedResponse
	for _, payload := range parseFramePayloads(data) {
		if len(payload) == 0 {
			continue // ACK-only frame
		}
		id, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			continue
		}
		resp := decodedResponse{cmdID: uint16(id)}
		for len(payload) > 0 {
			v, err := protocol.DecodeVLQInt(&payload)
			if err != nil {
				break
			}
			resp.args = append(resp.args, v)
		}
		out = append(out, resp)
	}
	return out
}

// runTimers advances the scheduler clock in steps, dispatching due timers
func runTimers(until uint32, step uint32) {
	for now := GetTime(); now < until; now += step {
		SetTime(now + step)
		ProcessTimers()
	}
}

// MockEncoderBackend is a test implementation of EncoderBackend backed
// by the real decoder hand-off semantics
type MockEncoderBackend struct {
	dec       *Decoder
	pinA      uint8
	pinB      uint8
	initErr   error
	inited    bool
	stopped   bool
	requests  int
	samplePin uint8
}

func NewMockEncoderBackend() *MockEncoderBackend {
	return &MockEncoderBackend{dec: NewDecoder()}
}

func (m *MockEncoderBackend) Init(pinA, pinB uint8) error {
	if m.initErr != nil {
		return m.initErr
	}
	m.pinA = pinA
	m.pinB = pinB
	m.inited = true
	m.dec.Sample(0) // seed
	return nil
}

func (m *MockEncoderBackend) RequestCount() {
	m.requests++
	m.dec.RequestCount()
}

func (m *MockEncoderBackend) TryTakeCount() (int32, bool) {
	// Emulate the asynchronous sampling context: one NoOp iteration
	// happens between the request and the consumer's poll
	m.dec.Sample(m.samplePin)
	return m.dec.TryTakeCount()
}

func (m *MockEncoderBackend) Stop()           { m.stopped = true }
func (m *MockEncoderBackend) GetName() string { return "mock" }

// Feed advances the emulated encoder through a sample sequence
func (m *MockEncoderBackend) Feed(samples ...uint8) {
	for _, s := range samples {
		m.dec.Sample(s)
		m.samplePin = s & 0x3
	}
}
