package resid

// WaveformGenerator is the oscillator of one voice.
//
// A 24-bit accumulator is the basis for waveform generation. FREQ is added to
// the lower 16 bits of the accumulator each cycle. The accumulator is set to
// zero when TEST is set, and starts counting when TEST is cleared. The noise
// waveform is taken from intermediate bits of a 23-bit shift register, which
// is clocked by bit 19 of the accumulator.
type WaveformGenerator struct {
	// Neighbours in the hard sync ring. They are assigned once by Sid and
	// never owned by this generator.
	syncSource *WaveformGenerator
	syncDest   *WaveformGenerator

	msbRising   bool
	accumulator reg24
	shiftReg    reg24

	freq     reg16
	pw       reg12
	waveform reg8
	test     reg8
	ringMod  reg8
	sync     reg8

	tables *combinedTables
}

const shiftRegReset reg24 = 0x7ffff8

func NewWaveformGenerator() *WaveformGenerator {
	w := &WaveformGenerator{}
	w.syncSource = w
	w.syncDest = w
	w.SetModel(MOS6581)
	w.Reset()
	return w
}

func (w *WaveformGenerator) Reset() {
	w.accumulator = 0
	w.shiftReg = shiftRegReset
	w.freq = 0
	w.pw = 0

	w.waveform = 0
	w.test = 0
	w.ringMod = 0
	w.sync = 0

	w.msbRising = false
}

// SetSyncSource makes source the oscillator that syncs and ring modulates w.
func (w *WaveformGenerator) SetSyncSource(source *WaveformGenerator) {
	w.syncSource = source
	source.syncDest = w
}

// SetModel selects the combined waveform tables of the given chip.
func (w *WaveformGenerator) SetModel(model Model) {
	w.tables = combinedWaveTables(model)
}

// ClockOne advances the oscillator by a single cycle.
func (w *WaveformGenerator) ClockOne() {
	// The accumulator is held at zero while TEST is set.
	if w.test != 0 {
		w.msbRising = false
		return
	}

	prev := w.accumulator
	w.accumulator = (w.accumulator + reg24(w.freq)) & 0xffffff

	w.msbRising = prev&0x800000 == 0 && w.accumulator&0x800000 != 0

	// Shift the noise register when bit 19 goes high.
	if prev&0x080000 == 0 && w.accumulator&0x080000 != 0 {
		w.shiftNoise()
	}
}

// Clock advances the oscillator by delta cycles. The accumulator and noise
// register end up exactly where delta calls to ClockOne would leave them.
func (w *WaveformGenerator) Clock(delta CycleCount) {
	if delta <= 0 {
		return
	}
	if w.test != 0 {
		w.msbRising = false
		return
	}

	prev := w.accumulator

	deltaAccumulator := uint64(delta) * uint64(w.freq)
	w.accumulator = reg24((uint64(w.accumulator) + deltaAccumulator) & 0xffffff)

	w.msbRising = prev&0x800000 == 0 && w.accumulator&0x800000 != 0

	// Bit 19 goes high once for every 2^20 added to the accumulator. Whole
	// periods shift once each; the remainder at the end is checked against
	// the accumulator value it started from.
	acc := uint64(w.accumulator)
	shiftPeriod := uint64(0x100000)

	for deltaAccumulator != 0 {
		if deltaAccumulator < shiftPeriod {
			shiftPeriod = deltaAccumulator
			start := (acc - shiftPeriod) & 0x080000
			end := acc & 0x080000
			if shiftPeriod <= 0x080000 {
				// Only a single flip from 0 to 1 fits.
				if start != 0 || end == 0 {
					break
				}
			} else {
				// Anything but a lone flip from 1 to 0 contains a rising
				// edge.
				if start != 0 && end == 0 {
					break
				}
			}
		}

		// NB! The shift is actually delayed 2 cycles, this is not modeled.
		w.shiftNoise()
		deltaAccumulator -= shiftPeriod
	}
}

// cyclesToMSBToggle returns the number of cycles until the accumulator MSB
// changes, assuming freq is nonzero.
func (w *WaveformGenerator) cyclesToMSBToggle() CycleCount {
	var deltaAccumulator reg24
	if w.accumulator&0x800000 != 0 {
		deltaAccumulator = 0x1000000 - w.accumulator
	} else {
		deltaAccumulator = 0x800000 - w.accumulator
	}

	next := CycleCount(deltaAccumulator / reg24(w.freq))
	if deltaAccumulator%reg24(w.freq) != 0 {
		next++
	}
	return next
}

func (w *WaveformGenerator) shiftNoise() {
	bit0 := ((w.shiftReg >> 22) ^ (w.shiftReg >> 17)) & 0x1
	w.shiftReg = ((w.shiftReg << 1) & 0x7fffff) | bit0
}

// Synchronize resets the destination oscillator when this oscillator's MSB
// went high in the last clock and the destination has sync enabled.
func (w *WaveformGenerator) Synchronize() {
	// When a sync source is itself synced on the same cycle as its MSB goes
	// high, the destination is not synced. Verified by sampling OSC3.
	if w.msbRising && w.syncDest.sync != 0 && !(w.sync != 0 && w.syncSource.msbRising) {
		w.syncDest.accumulator = 0
	}
}

// NB! The output from SID 8580 is delayed one cycle compared to SID 6581,
// this is not modeled.

// Triangle:
// The upper 12 bits of the accumulator are used. The MSB creates the falling
// edge by inverting the lower 11 bits, then it is thrown away and the lower
// 11 bits are left-shifted (half the resolution, full amplitude).
// Ring modulation substitutes the MSB with MSB EOR sync source MSB.
func (w *WaveformGenerator) outputTriangle() reg12 {
	msb := w.accumulator
	if w.ringMod != 0 {
		msb ^= w.syncSource.accumulator
	}

	if msb&0x800000 != 0 {
		return reg12((^w.accumulator >> 11) & 0xffe)
	}
	return reg12((w.accumulator >> 11) & 0xffe)
}

// Sawtooth:
// The output is identical to the upper 12 bits of the accumulator.
func (w *WaveformGenerator) outputSawtooth() reg12 {
	return reg12(w.accumulator >> 12)
}

// Pulse:
// The upper 12 bits of the accumulator are compared to the pulse width.
// The test bit holds the output at 0xfff regardless of pulse width.
// NB! The output is actually delayed one cycle after the compare, this is
// not modeled.
func (w *WaveformGenerator) outputPulse() reg12 {
	if w.test != 0 || reg12(w.accumulator>>12) >= w.pw {
		return 0xfff
	}
	return 0x000
}

// Noise:
// Intermediate bits of the shift register form the upper 8 bits of the
// 12-bit output.
//
//	Register bits:  22 20 16 13 11 7 4 2
//	OSC3 bits:       7  6  5  4  3 2 1 0
func (w *WaveformGenerator) outputNoise() reg12 {
	return reg12(((w.shiftReg & 0x400000) >> 11) |
		((w.shiftReg & 0x100000) >> 10) |
		((w.shiftReg & 0x010000) >> 7) |
		((w.shiftReg & 0x002000) >> 5) |
		((w.shiftReg & 0x000800) >> 4) |
		((w.shiftReg & 0x000080) >> 1) |
		((w.shiftReg & 0x000010) << 1) |
		((w.shiftReg & 0x000004) << 2))
}

// Combined waveforms are not a plain AND of their parts: a zero bit in one
// waveform also pulls down neighbouring bits. The output is looked up in a
// table of 8-bit OSC3 samples (see wavetables.go), indexed by the sawtooth
// output or, for pulse+triangle, by the triangle output shifted down so that
// ring modulation still applies.

func (w *WaveformGenerator) outputSawTriangle() reg12 {
	return reg12(w.tables.st[w.outputSawtooth()]) << 4
}

func (w *WaveformGenerator) outputPulseTriangle() reg12 {
	return (reg12(w.tables.pt[w.outputTriangle()>>1]) << 4) & w.outputPulse()
}

func (w *WaveformGenerator) outputPulseSaw() reg12 {
	return (reg12(w.tables.ps[w.outputSawtooth()]) << 4) & w.outputPulse()
}

func (w *WaveformGenerator) outputPulseSawTriangle() reg12 {
	return (reg12(w.tables.pst[w.outputSawtooth()]) << 4) & w.outputPulse()
}

// Output returns the 12-bit waveform selected by the control register.
//
// Combinations including noise output zero after a few cycles on the real
// chip, and are modeled as zero.
func (w *WaveformGenerator) Output() reg12 {
	switch w.waveform {
	case 0x1:
		return w.outputTriangle()
	case 0x2:
		return w.outputSawtooth()
	case 0x3:
		return w.outputSawTriangle()
	case 0x4:
		return w.outputPulse()
	case 0x5:
		return w.outputPulseTriangle()
	case 0x6:
		return w.outputPulseSaw()
	case 0x7:
		return w.outputPulseSawTriangle()
	case 0x8:
		return w.outputNoise()
	default:
		return 0
	}
}

func (w *WaveformGenerator) WriteFreqLo(freqLo reg8) {
	w.freq = (w.freq & 0xff00) | reg16(freqLo)
}

func (w *WaveformGenerator) WriteFreqHi(freqHi reg8) {
	w.freq = (reg16(freqHi) << 8) | (w.freq & 0x00ff)
}

func (w *WaveformGenerator) WritePwLo(pwLo reg8) {
	w.pw = (w.pw & 0xf00) | reg12(pwLo)
}

func (w *WaveformGenerator) WritePwHi(pwHi reg8) {
	w.pw = ((reg12(pwHi) << 8) & 0xf00) | (w.pw & 0x0ff)
}

// WriteControlReg handles waveform select, test, ring mod and sync. The gate
// bit belongs to the envelope generator.
func (w *WaveformGenerator) WriteControlReg(control reg8) {
	w.waveform = (control >> 4) & 0x0f
	w.ringMod = control & 0x04
	w.sync = control & 0x02

	testNext := control & 0x08

	if testNext != 0 {
		// NB! On the chip the shift register bits fade towards zero over
		// $2000 - $4000 cycles rather than clearing at once. Not modeled.
		w.accumulator = 0
		w.shiftReg = 0
	} else if w.test != 0 {
		// NB! The register only reaches this exact value if the bits had
		// time to fade. Not modeled.
		w.shiftReg = shiftRegReset
	}

	w.test = testNext
}

// ReadOSC is the OSC3 read-back value: the upper 8 bits of the output.
func (w *WaveformGenerator) ReadOSC() reg8 {
	return reg8(w.Output() >> 4)
}
