//go:build rp2040 || rp2350

package pio

import (
	"goqei/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

var (
	// PIO allocation tracking
	// RP2040/RP2350 has 2 PIO blocks (PIO0, PIO1) with 4 state machines each
	pioAllocations = [2][4]bool{}
	nextPIONum     = uint8(0)
	nextSMNum      = uint8(0)

	// The quadrature program is loaded once per PIO block and shared by
	// every state machine on that block
	programLoaded = [2]bool{}
)

// InitEncoders initializes the encoder subsystem
func InitEncoders() {
	// Register encoder commands
	core.InitEncoderCommands()

	// Set backend factory function
	// This is called by the config_encoder command for each encoder
	core.SetEncoderBackendFactory(createPIOBackend)
}

// createPIOBackend creates a PIO-based encoder backend
// Returns nil if no PIO resources are available
func createPIOBackend() core.EncoderBackend {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		// All 8 state machines in use
		return nil
	}

	return NewPIOEncoderBackend(pioNum, smNum)
}

// loadQuadratureProgram ensures the program is present in a PIO block's
// instruction memory. It must sit at origin 0 because of the computed
// jump, and at 29 instructions it nearly fills the block anyway.
func loadQuadratureProgram(p *rp2pio.PIO, pioNum uint8) (uint8, error) {
	if programLoaded[pioNum] {
		return quadratureOrigin, nil
	}
	offset, err := p.AddProgram(quadratureProgram, quadratureOrigin)
	if err != nil {
		return 0, err
	}
	programLoaded[pioNum] = true
	return offset, nil
}

// allocatePIO allocates a PIO state machine
// Returns (pioNum, smNum, ok)
func allocatePIO() (uint8, uint8, bool) {
	// Round-robin allocation across PIO blocks and state machines
	for i := 0; i < 8; i++ { // 2 PIO x 4 SM = 8 total
		pioNum := nextPIONum
		smNum := nextSMNum

		// Advance to next slot
		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !pioAllocations[pioNum][smNum] {
			pioAllocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}

	// All PIO resources exhausted
	return 0, 0, false
}

// releasePIO returns a state machine to the pool
func releasePIO(pioNum, smNum uint8) {
	if pioNum < 2 && smNum < 4 {
		pioAllocations[pioNum][smNum] = false
	}
}

// GetPIOAllocationStatus returns PIO allocation status for debugging
func GetPIOAllocationStatus() [2][4]bool {
	return pioAllocations
}

// ResetPIOAllocations resets all PIO allocations (for testing)
func ResetPIOAllocations() {
	pioAllocations = [2][4]bool{}
	nextPIONum = 0
	nextSMNum = 0
}
