package core

import "testing"

// simulate replays a sample sequence through the bare transition table
func simulate(samples []uint8) int32 {
	var count int32
	var prev uint8
	for i, s := range samples {
		if i > 0 {
			count += int32(QuadratureAction(prev, s))
		}
		prev = s & 0x3
	}
	return count
}

func TestDecoderMatchesTableSimulation(t *testing.T) {
	sequences := [][]uint8{
		{0, 1, 3, 2, 0},          // one full reverse rotation
		{0, 2, 3, 1, 0},          // one full forward rotation
		{0, 1, 3, 2, 0, 1, 3, 2}, // continued rotation
		{0, 0, 1, 1, 3, 3, 2},    // repeated samples interleaved
		{0, 3, 1, 2, 0, 3},       // all invalid transitions
		{2, 3, 2, 3, 2, 3},       // dithering on one edge
	}

	for _, seq := range sequences {
		d := NewDecoder()
		for _, s := range seq {
			d.Sample(s)
		}
		if got, want := d.Count(), simulate(seq); got != want {
			t.Errorf("sequence %v: decoder count %d, table simulation %d", seq, got, want)
		}
	}
}

func TestFirstSampleSeedsWithoutAction(t *testing.T) {
	for pins := uint8(0); pins < 4; pins++ {
		d := NewDecoder()
		d.Sample(pins)
		if d.Count() != 0 {
			t.Errorf("first sample %#02b moved counter to %d", pins, d.Count())
		}
	}
}

func TestRepeatedSampleIsNoOp(t *testing.T) {
	d := NewDecoder()
	d.Sample(0)
	d.Sample(1) // establish non-zero count
	before := d.Count()
	for i := 0; i < 10; i++ {
		d.Sample(1)
	}
	if d.Count() != before {
		t.Errorf("repeated identical samples changed count from %d to %d", before, d.Count())
	}
}

func TestInvalidTransitionsAreNoOp(t *testing.T) {
	invalid := [][2]uint8{{0, 3}, {3, 0}, {1, 2}, {2, 1}}
	for _, tr := range invalid {
		d := NewDecoder()
		d.Sample(tr[0])
		d.Sample(tr[1])
		if d.Count() != 0 {
			t.Errorf("invalid transition %02b->%02b changed count to %d", tr[0], tr[1], d.Count())
		}
		if a := QuadratureAction(tr[0], tr[1]); a != ActNone {
			t.Errorf("table action for %02b->%02b = %d, want 0", tr[0], tr[1], a)
		}
	}
}

func TestFullRotationScenario(t *testing.T) {
	// 00 -> 01 -> 11 -> 10 -> 00: four valid single-step transitions,
	// each a Decrement per the table
	seq := []uint8{0, 1, 3, 2, 0}
	d := NewDecoder()
	for _, s := range seq {
		d.Sample(s)
	}
	want := simulate(seq)
	if want != -4 {
		t.Fatalf("table simulation of full rotation = %d, expected -4", want)
	}
	if d.Count() != want {
		t.Errorf("full rotation count = %d, want %d", d.Count(), want)
	}
}

func TestTryTakeWithoutRequest(t *testing.T) {
	d := NewDecoder()
	d.Sample(0)
	d.Sample(1)
	if v, ok := d.TryTakeCount(); ok {
		t.Errorf("TryTakeCount returned %d with no prior request", v)
	}
}

func TestRequestServicedAtNextIteration(t *testing.T) {
	d := NewDecoder()
	d.Sample(0)
	d.Sample(1)
	d.Sample(3) // count now -2

	d.RequestCount()
	d.Sample(3) // NoOp iteration services the request

	// Further iterations must not change the published value
	d.Sample(2)
	d.Sample(0)

	v, ok := d.TryTakeCount()
	if !ok {
		t.Fatal("no value published after request")
	}
	if v != -2 {
		t.Errorf("published value = %d, want -2 (count at servicing iteration)", v)
	}

	// Slot is now empty until the next request
	if _, ok := d.TryTakeCount(); ok {
		t.Error("second take without new request returned a value")
	}
}

func TestRequestUnchangedByNoOpIterations(t *testing.T) {
	d := NewDecoder()
	d.Sample(0)
	d.Sample(2) // count +1
	d.RequestCount()
	for i := 0; i < 20; i++ {
		d.Sample(2) // all NoOp
	}
	v, ok := d.TryTakeCount()
	if !ok || v != 1 {
		t.Errorf("got (%d, %v), want (1, true)", v, ok)
	}
}

func TestLatestValueWins(t *testing.T) {
	d := NewDecoder()
	d.Sample(0)

	d.RequestCount()
	d.Sample(2) // publishes +1

	d.RequestCount()
	d.Sample(3) // overwrites with +2

	v, ok := d.TryTakeCount()
	if !ok || v != 2 {
		t.Errorf("got (%d, %v), want (2, true): unconsumed value must be overwritten", v, ok)
	}
	if _, ok := d.TryTakeCount(); ok {
		t.Error("overwritten value still available after take")
	}
}

func TestIndependentInstances(t *testing.T) {
	fwd := []uint8{0, 2, 3, 1, 0, 2, 3, 1, 0}
	rev := []uint8{0, 1, 3, 2, 0, 1, 3, 2, 0}

	a := NewDecoder()
	b := NewDecoder()
	for i := range fwd {
		a.Sample(fwd[i])
		b.Sample(rev[i])
	}

	if a.Count() != -b.Count() {
		t.Errorf("opposite rotations: %d vs %d, want opposite signs equal magnitude", a.Count(), b.Count())
	}
	if a.Count() == 0 {
		t.Error("rotation sequences produced zero count")
	}
}

func TestCounterMovesAtMostOnePerSample(t *testing.T) {
	d := NewDecoder()
	prev := d.Count()
	// Walk every 2-bit value in a fixed pattern covering all transitions
	pattern := []uint8{0, 1, 2, 3, 0, 2, 1, 3, 1, 0, 3, 2, 3, 1, 2, 0}
	for _, s := range pattern {
		d.Sample(s)
		delta := d.Count() - prev
		if delta > 1 || delta < -1 {
			t.Fatalf("sample %02b moved counter by %d", s, delta)
		}
		prev = d.Count()
	}
}
