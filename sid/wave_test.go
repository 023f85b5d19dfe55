package resid

import (
	"math/rand"
	"testing"
)

func newWaveRing() [3]*WaveformGenerator {
	var w [3]*WaveformGenerator
	for i := range w {
		w[i] = NewWaveformGenerator()
	}
	for i, src := range syncSourceOf {
		w[i].SetSyncSource(w[src])
	}
	return w
}

func clockWaveRing(w [3]*WaveformGenerator, cycles int) {
	for c := 0; c < cycles; c++ {
		for _, g := range w {
			g.ClockOne()
		}
		for _, g := range w {
			g.Synchronize()
		}
	}
}

func TestWave_NoiseShiftsOncePerPeriod(t *testing.T) {
	const shifted = reg24(0x7ffff0)

	single := NewWaveformGenerator()
	single.WriteFreqHi(0x10)

	for i := 0; i < 127; i++ {
		single.ClockOne()
	}
	if single.shiftReg != shiftRegReset {
		t.Fatalf("expected no shift before bit 19 rises, got 0x%06X", single.shiftReg)
	}
	single.ClockOne()
	if single.shiftReg != shifted {
		t.Fatalf("expected one shift at cycle 128, got 0x%06X", single.shiftReg)
	}
	for i := 128; i < 256; i++ {
		single.ClockOne()
	}
	if single.shiftReg != shifted {
		t.Fatalf("expected exactly one shift in 256 cycles, got 0x%06X", single.shiftReg)
	}

	batch := NewWaveformGenerator()
	batch.WriteFreqHi(0x10)
	batch.Clock(256)
	if batch.shiftReg != shifted {
		t.Fatalf("expected exactly one shift in a batch of 256 cycles, got 0x%06X", batch.shiftReg)
	}
	if batch.accumulator != 0x100000 {
		t.Fatalf("expected accumulator 0x100000, got 0x%06X", batch.accumulator)
	}
}

func TestWave_DeltaMatchesSingleCycle(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for run := 0; run < 200; run++ {
		a := NewWaveformGenerator()
		b := NewWaveformGenerator()

		for op := 0; op < 20; op++ {
			if rng.Intn(3) == 0 {
				lo, hi := reg8(rng.Intn(256)), reg8(rng.Intn(256))
				a.WriteFreqLo(lo)
				a.WriteFreqHi(hi)
				b.WriteFreqLo(lo)
				b.WriteFreqHi(hi)
			}
			if rng.Intn(10) == 0 {
				ctrl := reg8(rng.Intn(2) << 3)
				a.WriteControlReg(ctrl)
				b.WriteControlReg(ctrl)
			}

			delta := CycleCount(rng.Intn(5000))
			for i := CycleCount(0); i < delta; i++ {
				a.ClockOne()
			}
			b.Clock(delta)

			if a.accumulator != b.accumulator || a.shiftReg != b.shiftReg {
				t.Fatalf("run %d op %d freq 0x%04X delta %d: single acc 0x%06X noise 0x%06X, batch acc 0x%06X noise 0x%06X",
					run, op, a.freq, delta, a.accumulator, a.shiftReg, b.accumulator, b.shiftReg)
			}
		}
	}
}

func TestWave_TestBitHoldsAndResets(t *testing.T) {
	w := NewWaveformGenerator()
	w.WriteFreqHi(0x10)
	w.Clock(1000)

	w.WriteControlReg(0x08)
	if w.accumulator != 0 || w.shiftReg != 0 {
		t.Fatalf("expected test bit to clear accumulator and noise, got 0x%06X 0x%06X", w.accumulator, w.shiftReg)
	}
	w.Clock(1000)
	if w.accumulator != 0 {
		t.Fatalf("expected accumulator held at 0, got 0x%06X", w.accumulator)
	}

	w.WriteControlReg(0x00)
	if w.shiftReg != shiftRegReset {
		t.Fatalf("expected noise register reset, got 0x%06X", w.shiftReg)
	}
}

func TestWave_HardSync(t *testing.T) {
	w := newWaveRing()
	w[0].WriteFreqHi(0x80)
	w[1].WriteFreqHi(0x01)
	w[1].WriteControlReg(0x02)

	clockWaveRing(w, 255)
	if w[1].accumulator != 0xff00 {
		t.Fatalf("expected 0xff00 before the sync, got 0x%06X", w[1].accumulator)
	}

	// Voice 0 MSB goes high on cycle 256.
	clockWaveRing(w, 1)
	if w[0].accumulator != 0x800000 {
		t.Fatalf("expected source MSB high, got 0x%06X", w[0].accumulator)
	}
	if w[1].accumulator != 0 {
		t.Fatalf("expected synced accumulator 0, got 0x%06X", w[1].accumulator)
	}
}

func TestWave_HardSyncSkippedWhenSourceSynced(t *testing.T) {
	w := newWaveRing()
	w[2].WriteFreqHi(0x80)
	w[0].WriteFreqHi(0x80)
	w[0].WriteControlReg(0x02)
	w[1].WriteFreqHi(0x01)
	w[1].WriteControlReg(0x02)

	clockWaveRing(w, 256)

	if w[0].accumulator != 0 {
		t.Fatalf("expected voice 0 synced by voice 2, got 0x%06X", w[0].accumulator)
	}
	if w[1].accumulator != 0x10000 {
		t.Fatalf("expected voice 1 to keep running, got 0x%06X", w[1].accumulator)
	}
}

func TestWave_RingModInvertsTriangle(t *testing.T) {
	w := newWaveRing()
	w[0].WriteControlReg(0x14)
	w[0].accumulator = 0x100000

	w[2].accumulator = 0x000000
	plain := w[0].Output()
	if plain != 0x200 {
		t.Fatalf("expected triangle 0x200, got 0x%03X", plain)
	}

	w[2].accumulator = 0x800000
	if got := w[0].Output(); got != 0xdfe {
		t.Fatalf("expected inverted triangle 0xdfe, got 0x%03X", got)
	}
}

func TestWave_PulseAndReadOSC(t *testing.T) {
	w := NewWaveformGenerator()
	w.WritePwLo(0x00)
	w.WritePwHi(0x08)
	w.WriteControlReg(0x40)

	w.accumulator = 0x7ff000
	if got := w.Output(); got != 0x000 {
		t.Fatalf("expected pulse low below width, got 0x%03X", got)
	}
	w.accumulator = 0x800000
	if got := w.Output(); got != 0xfff {
		t.Fatalf("expected pulse high at width, got 0x%03X", got)
	}
	if got := w.ReadOSC(); got != 0xff {
		t.Fatalf("expected OSC3 0xff, got 0x%02X", got)
	}
}

func TestWave_CombinedPulseFollowsPulse(t *testing.T) {
	for _, model := range []Model{MOS6581, MOS8580} {
		w := NewWaveformGenerator()
		w.SetModel(model)
		w.WritePwHi(0x0f)
		w.WritePwLo(0xff)

		for _, waveform := range []reg8{0x5, 0x6, 0x7} {
			w.WriteControlReg(waveform << 4)
			for acc := reg24(0); acc < 0xfff000; acc += 0x1000 {
				w.accumulator = acc
				if got := w.Output(); got != 0 {
					t.Fatalf("%v waveform %X: expected 0 with pulse low at 0x%06X, got 0x%03X", model, waveform, acc, got)
				}
			}
		}
	}
}

func TestWave_CombinedTablesShared(t *testing.T) {
	if combinedWaveTables(MOS6581) != combinedWaveTables(MOS6581) {
		t.Fatalf("expected one table set per model")
	}
	if combinedWaveTables(MOS6581) == combinedWaveTables(MOS8580) {
		t.Fatalf("expected distinct tables per model")
	}
}

func TestWave_NoiseCombinationsAreSilent(t *testing.T) {
	w := NewWaveformGenerator()
	w.WriteFreqHi(0x10)
	w.Clock(100_000)

	for waveform := reg8(0x9); waveform <= 0xf; waveform++ {
		w.WriteControlReg(waveform << 4)
		if got := w.Output(); got != 0 {
			t.Fatalf("waveform %X: expected 0, got 0x%03X", waveform, got)
		}
	}
}

func TestWave_PulldownTables(t *testing.T) {
	tables := combinedWaveTables(MOS6581)

	if got := tables.ps[0xfff]; got != 0xff {
		t.Fatalf("expected pulse+saw to keep all bits at 0xfff, got 0x%02X", got)
	}
	if got := tables.ps[0x800]; got != 0 {
		t.Fatalf("expected a lone top bit pulled low, got 0x%02X", got)
	}
	if got := tables.pt[0]; got != 0 {
		t.Fatalf("expected pulse+triangle 0 at 0, got 0x%02X", got)
	}
	if got := tables.pt[0x7ff] & 0x80; got == 0 {
		t.Fatalf("expected pulse+triangle top bit set at the triangle peak")
	}
}

func TestWave_PulldownDistanceTable(t *testing.T) {
	p := newPulldown(&pulldownConfigs[1][2])

	if p.distance[12] != 1 {
		t.Fatalf("expected unit weight at distance 0, got %v", p.distance[12])
	}
	want := quadraticDistance(0.381492466, 3)
	if p.distance[15] != want {
		t.Fatalf("expected %v three bits below, got %v", want, p.distance[15])
	}
	if p.distance[0] >= p.distance[11] {
		t.Fatalf("expected weights to fall off with distance, got %v and %v", p.distance[0], p.distance[11])
	}
	if got := p.value(0); got != 0 {
		t.Fatalf("expected 0 for an all-zero input, got 0x%03X", got)
	}
}
