package resid

import (
	"math/rand"
	"testing"
)

func TestSID_BusValueDecays(t *testing.T) {
	s := NewSID()
	s.Write(0x00, 0x42)

	if got := s.Read(0x00); got != 0x42 {
		t.Fatalf("expected 0x42 from the bus, got 0x%02X", got)
	}
	if got := s.Read(0x18); got != 0x42 {
		t.Fatalf("expected 0x42 from another write-only register, got 0x%02X", got)
	}

	for i := 0; i < 0x1fff; i++ {
		s.ClockOne()
	}
	if got := s.Read(0x00); got != 0x42 {
		t.Fatalf("expected bus value alive after 0x1fff cycles, got 0x%02X", got)
	}

	s.ClockOne()
	if got := s.Read(0x00); got != 0x00 {
		t.Fatalf("expected bus value gone after 0x2000 cycles, got 0x%02X", got)
	}

	s.Write(0x05, 0x99)
	s.Clock(0x2000)
	if got := s.Read(0x05); got != 0x00 {
		t.Fatalf("expected bus value gone after a batch of 0x2000 cycles, got 0x%02X", got)
	}
}

func TestSID_OffsetsAreMasked(t *testing.T) {
	s := NewSID()
	s.Write(0x20+0x0e, 0x34)
	if s.voice[2].Wave.freq != 0x34 {
		t.Fatalf("expected write at 0x2e to land on 0x0e, got freq 0x%04X", s.voice[2].Wave.freq)
	}

	s.SetPotentiometers(0x12, 0x34)
	if got := s.Read(0xf9); got != 0x12 {
		t.Fatalf("expected POTX through 0xf9, got 0x%02X", got)
	}
}

func TestSID_ReadBackRegisters(t *testing.T) {
	s := NewSID()
	s.SetPotentiometers(0x12, 0x34)

	if got := s.Read(0x19); got != 0x12 {
		t.Fatalf("expected POTX 0x12, got 0x%02X", got)
	}
	if got := s.Read(0x1a); got != 0x34 {
		t.Fatalf("expected POTY 0x34, got 0x%02X", got)
	}

	// Voice 3 sawtooth.
	s.Write(0x0f, 0x10)
	s.Write(0x12, 0x20)
	s.Clock(0x100)
	if got, want := s.Read(0x1b), uint8(s.voice[2].Wave.accumulator>>16); got != want {
		t.Fatalf("expected OSC3 0x%02X, got 0x%02X", want, got)
	}

	s.Write(0x13, 0x00)
	s.Write(0x14, 0xf0)
	s.Write(0x12, 0x21)
	s.Clock(9 * 10)
	if got := s.Read(0x1c); got != 10 {
		t.Fatalf("expected ENV3 10, got %d", got)
	}
}

func TestSID_DeltaMatchesSingleCycle(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	a := NewSID()
	b := NewSID()

	for op := 0; op < 400; op++ {
		reg := uint8(rng.Intn(0x19))
		val := uint8(rng.Intn(256))
		a.Write(reg, val)
		b.Write(reg, val)

		delta := CycleCount(rng.Intn(3000))
		for i := CycleCount(0); i < delta; i++ {
			a.ClockOne()
		}
		b.Clock(delta)

		for v := range a.voice {
			wa, wb := a.voice[v].Wave, b.voice[v].Wave
			if wa.accumulator != wb.accumulator || wa.shiftReg != wb.shiftReg {
				t.Fatalf("op %d delta %d voice %d: oscillator diverged: single 0x%06X/0x%06X batch 0x%06X/0x%06X",
					op, delta, v, wa.accumulator, wa.shiftReg, wb.accumulator, wb.shiftReg)
			}
			if !envelopeEqual(a.voice[v].Envelope, b.voice[v].Envelope) {
				t.Fatalf("op %d delta %d voice %d: envelope diverged", op, delta, v)
			}
		}
		if a.busValue != b.busValue || a.busValueTTL != b.busValueTTL {
			t.Fatalf("op %d: bus latch diverged", op)
		}
	}
}

func TestSID_ResetConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	a := NewSID()
	b := NewSID()
	for i := 0; i < 200; i++ {
		a.Write(uint8(rng.Intn(0x19)), uint8(rng.Intn(256)))
		a.Clock(CycleCount(rng.Intn(5000)))
	}
	b.Write(0x04, 0x41)
	b.Clock(12345)

	a.Reset()
	b.Reset()

	writes := [][2]uint8{{0x00, 0x25}, {0x01, 0x11}, {0x05, 0x09}, {0x06, 0xa0}, {0x04, 0x21}, {0x18, 0x1f}}
	for _, w := range writes {
		a.Write(w[0], w[1])
		b.Write(w[0], w[1])
	}
	a.Clock(20000)
	b.Clock(20000)

	if a.State() != b.State() {
		t.Fatalf("expected identical state after reset\n%+v\n%+v", a.State(), b.State())
	}
	if a.Output() != b.Output() {
		t.Fatalf("expected identical output after reset, got %d and %d", a.Output(), b.Output())
	}
}

func TestSID_StateRoundTrip(t *testing.T) {
	a := NewSID()
	a.Write(0x00, 0x34)
	a.Write(0x01, 0x12)
	a.Write(0x02, 0x00)
	a.Write(0x03, 0x08)
	a.Write(0x05, 0x28)
	a.Write(0x06, 0xa9)
	a.Write(0x04, 0x41)
	a.Write(0x0e, 0x77)
	a.Write(0x12, 0x81)
	a.Write(0x16, 0x40)
	a.Write(0x17, 0xf3)
	a.Write(0x18, 0x5f)
	a.Clock(30000)

	st := a.State()

	b := NewSID()
	b.SetState(st)
	if b.State() != st {
		t.Fatalf("expected restored state\n%+v\n%+v", st, b.State())
	}

	a.Clock(5000)
	b.Clock(5000)
	if a.Output() != b.Output() {
		t.Fatalf("expected identical output after restore, got %d and %d", a.Output(), b.Output())
	}
}

func TestSID_OutputBitsClamps(t *testing.T) {
	s := NewSID()
	s.SetModel(MOS8580)
	s.EnableExternalFilter(false)

	// Saw at full envelope and volume, unfiltered.
	for v := 0; v < 3; v++ {
		s.Write(uint8(v*7+5), 0x00)
		s.Write(uint8(v*7+6), 0xf0)
		s.Write(uint8(v*7+4), 0x21)
	}
	s.Write(0x18, 0x0f)
	s.Clock(9 * 300)

	for _, v := range s.voice {
		v.Wave.accumulator = 0xfff000
	}
	s.Clock(1)

	if got := s.OutputBits(16); got <= 0 || got > 0x7fff {
		t.Fatalf("expected a positive 16 bit sample, got %d", got)
	}
	if got := s.OutputBits(4); got < -128 || got > 127 {
		t.Fatalf("expected bits clamped to 8, got %d", got)
	}
	if got := s.OutputBits(32); got < -(1<<23) || got >= 1<<23 {
		t.Fatalf("expected bits clamped to 24, got %d", got)
	}
	if d := s.OutputBits(24)>>8 - s.OutputBits(16); d < -500 || d > 500 {
		t.Fatalf("expected 24 bit output to scale with 16 bit output, got %d and %d", s.OutputBits(24), s.OutputBits(16))
	}
}

func TestSID_MuteAndInput(t *testing.T) {
	s := NewSID()
	s.SetModel(MOS8580)
	s.EnableFilter(false)
	s.EnableExternalFilter(false)
	s.Write(0x18, 0x0f)

	s.Input(0x1000)
	s.ClockOne()
	if s.Output() == 0 {
		t.Fatalf("expected external input on the output")
	}
	s.Input(0)

	s.Write(0x05, 0x00)
	s.Write(0x06, 0xf0)
	s.Write(0x04, 0x41)
	s.Write(0x03, 0x08)
	s.Clock(9 * 300)

	loud := s.Output()
	s.Mute(0, true)
	s.ClockOne()
	if s.Output() == loud || s.Output() != 0 {
		t.Fatalf("expected silence with voice 0 muted, got %d (was %d)", s.Output(), loud)
	}
	s.Mute(7, true)
}

func TestSID_ModelSwitch(t *testing.T) {
	s := NewSID()
	if s.Model() != MOS6581 {
		t.Fatalf("expected default MOS6581, got %v", s.Model())
	}
	s.SetModel(MOS8580)
	if s.Model() != MOS8580 || s.voice[0].waveZero != 0x800 || s.filter.mixerDC != 0 {
		t.Fatalf("expected 8580 constants after SetModel")
	}
}

func BenchmarkSID_ClockOne(b *testing.B) {
	s := NewSID()
	s.Write(0x01, 0x10)
	s.Write(0x04, 0x21)
	s.Write(0x18, 0x1f)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.ClockOne()
	}
}

func BenchmarkSID_ClockFrame(b *testing.B) {
	s := NewSID()
	s.Write(0x01, 0x10)
	s.Write(0x04, 0x21)
	s.Write(0x18, 0x1f)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Clock(19656)
	}
}
