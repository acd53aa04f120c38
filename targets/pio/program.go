package pio

// PIO quadrature decode program
// Based on quadrature_encoder by pmarques-dev @ github (BSD-3-Clause),
// reworked from the pico-examples PIO source.
//
// The program continuously shifts the previous 2-bit pin state (kept in
// ISR) and the freshly sampled 2 pins into a 4-bit value, then does a
// computed jump into a 16-entry table at address 0 whose entries perform
// the increment / decrement / no-op for that transition. Y holds the
// running count.
//
// Writing any non-zero value to the TX FIFO makes the state machine push
// Y to the RX FIFO between 6 and 18 clocks later. The worst case
// sampling loop is 14 cycles, so the maximum step rate is sysclk/14.
//
// Layout (must load at origin 0 for the computed jump):
//
//	 0..14: transition jump table; entry 15 doubles as the first
//	        instruction of the update loop (11->11 is a no-op)
//	15..25: update loop: poll TX FIFO, push Y if asked, sample pins
//	26..28: increment Y via invert/decrement/invert
//
// This file carries no build tags so the program bytes stay testable on
// the host (see program_test.go, which steps every table entry against
// the portable decoder).
var quadratureProgram = []uint16{
	// Transition table: index = prev<<2 | new
	0x000f, //  0: jmp update       00 -> 00 no-op
	0x000e, //  1: jmp decrement    00 -> 01
	0x001a, //  2: jmp increment    00 -> 10
	0x000f, //  3: jmp update       00 -> 11 invalid
	0x001a, //  4: jmp increment    01 -> 00
	0x000f, //  5: jmp update       01 -> 01 no-op
	0x000f, //  6: jmp update       01 -> 10 invalid
	0x000e, //  7: jmp decrement    01 -> 11
	0x000e, //  8: jmp decrement    10 -> 00
	0x000f, //  9: jmp update       10 -> 01 invalid
	0x000f, // 10: jmp update       10 -> 10 no-op
	0x001a, // 11: jmp increment    10 -> 11
	0x000f, // 12: jmp update       11 -> 00 invalid
	0x001a, // 13: jmp increment    11 -> 01
	// decrement: the jump target is the next address, so this is a pure
	// "decrement Y" with no other side effects
	0x008f, // 14: jmp y--, update  11 -> 10
	// update (wrap target); address 15 is also the 11 -> 11 table entry
	0xe020, // 15: set x, 0
	0x8080, // 16: pull noblock     OSR = TX FIFO value, or 0
	0xa027, // 17: mov x, osr
	0xa0e6, // 18: mov osr, isr     save pin state, ISR gets trashed
	0x0036, // 19: jmp !x, sample   no count request pending
	0xa0c2, // 20: mov isr, y
	0x8020, // 21: push             publish count to RX FIFO
	// sample: build the 4-bit jump target from old and new pin state
	0xa0c3, // 22: mov isr, null
	0x40e2, // 23: in osr, 2
	0x4002, // 24: in pins, 2
	0xa0a6, // 25: mov pc, isr      computed jump into the table
	// increment: PIO has no increment, so invert/decrement/invert
	0xa02a, // 26: mov x, ~y
	0x005c, // 27: jmp x--, 28
	0xa049, // 28: mov y, ~x
	// .wrap back to update
}

const (
	quadratureOrigin     = 0  // computed jump requires loading at 0
	quadratureWrapTarget = 15 // update loop start
	quadratureWrap       = 28 // last instruction, wraps to update
)
