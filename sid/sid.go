package resid

// Sid is a complete SID chip: three voices in a hard sync ring, the filter,
// the external filter of the host board, and sample rate conversion.
type Sid struct {
	voice     [3]*Voice
	filter    *Filter
	extFilter *ExternalFilter
	potX      Potentiometer
	potY      Potentiometer
	model     Model

	busValue    reg8
	busValueTTL CycleCount

	// External audio input.
	extIn soundSample

	resampler
}

// Each oscillator is synced and ring modulated by the previous one in the
// ring: voice 0 by voice 2, voice 1 by voice 0, voice 2 by voice 1.
var syncSourceOf = [3]int{2, 0, 1}

// Bus value time to live in cycles. The real chip lets the bits fade over
// $2000 - $4000 cycles; the fading is not modeled.
const busValueLifetime CycleCount = 0x2000

func NewSID() *Sid {
	s := &Sid{}
	for i := range s.voice {
		s.voice[i] = NewVoice()
	}
	for i, src := range syncSourceOf {
		s.voice[i].SetSyncSource(s.voice[src])
	}

	s.filter = NewFilter()
	s.extFilter = NewExternalFilter()

	// Paddles are not connected until the host says otherwise.
	s.potX.Set(0xff)
	s.potY.Set(0xff)

	// The defaults are always valid.
	_ = s.SetSamplingParameters(ClockFreqPAL, SampleFast, 44100, -1, 0.97)

	s.busValue = 0
	s.busValueTTL = 0
	s.extIn = 0

	return s
}

// Reset restores the power-on state of the chip. Model and sampling
// parameters are kept.
func (s *Sid) Reset() {
	for _, v := range s.voice {
		v.Reset()
	}

	s.filter.Reset()
	s.extFilter.Reset()

	s.busValue = 0
	s.busValueTTL = 0
}

// SetModel selects the chip model. The tables of each model are shared
// between all chips and never modified.
func (s *Sid) SetModel(model Model) {
	s.model = model
	for _, v := range s.voice {
		v.SetModel(model)
	}

	s.filter.SetModel(model)
	s.extFilter.SetModel(model)
}

func (s *Sid) Model() Model {
	return s.model
}

// EnableFilter switches the SID filter on or off. Off is not something the
// chip can do, but it is handy for testing and slow hosts.
func (s *Sid) EnableFilter(enable bool) {
	s.filter.EnableFilter(enable)
}

// EnableExternalFilter switches the board filter on or off.
func (s *Sid) EnableExternalFilter(enable bool) {
	s.extFilter.EnableFilter(enable)
}

// FcDefault returns the interpolation points of the cutoff curve in use.
func (s *Sid) FcDefault() []FCPoint {
	return s.filter.FcDefault()
}

// SetFcCurve installs a custom cutoff curve, see Filter.SetFcCurve.
func (s *Sid) SetFcCurve(points []FCPoint) error {
	return s.filter.SetFcCurve(points)
}

// SetPotentiometers sets the values read back from POTX and POTY.
func (s *Sid) SetPotentiometers(x, y uint8) {
	s.potX.Set(x)
	s.potY.Set(y)
}

// Mute silences one voice. Channels outside 0-2 are ignored.
func (s *Sid) Mute(channel int, enable bool) {
	if channel < 0 || channel >= len(s.voice) {
		return
	}
	s.voice[channel].Mute(enable)
}

// Input writes a 16-bit sample to the audio input. The caller keeps the
// value within 16 bits. An external signal should be resampled to the chip
// clock first to avoid sampling noise.
func (s *Sid) Input(sample int) {
	// Voice outputs are 20 bits. Scale up to match three voices, as in the
	// MOS8580 "digi boost" hardware hack.
	s.extIn = (soundSample(sample) << 4) * 3
}

// Output reads a 16-bit sample from the audio output.
func (s *Sid) Output() int {
	return s.OutputBits(16)
}

// OutputBits reads a sample of the given bit depth, clamped to 8-24 bits,
// from the audio output. Values outside the range saturate.
func (s *Sid) OutputBits(bits int) int {
	if bits < 8 {
		bits = 8
	} else if bits > 24 {
		bits = 24
	}

	rng := 1 << bits
	half := rng >> 1

	// The divisor is the full scale external filter output over the range.
	// For ranges above 16 bits it drops below one, so scale up instead.
	const fullScale = (4095 * 255 >> 7) * 3 * 15 * 2

	var sample int
	if fullScale/rng > 0 {
		sample = int(s.extFilter.Output()) / (fullScale / rng)
	} else {
		sample = int(int64(s.extFilter.Output()) * int64(rng) / fullScale)
	}

	if sample >= half {
		return half - 1
	}
	if sample < -half {
		return -half
	}
	return sample
}

// Read reads a register. Reading a write-only register returns the last
// byte written to any register, for $2000 cycles.
//
// The real bits fade towards zero after a few cycles, reaching zero within
// approximately $2000 - $4000 cycles, and not in an orderly fashion. Since
// programs only rely on reading back a register right after writing it, the
// fading is not modeled.
func (s *Sid) Read(offset uint8) uint8 {
	switch offset & 0x1f {
	case 0x19:
		return uint8(s.potX.ReadPot())
	case 0x1a:
		return uint8(s.potY.ReadPot())
	case 0x1b:
		return uint8(s.voice[2].Wave.ReadOSC())
	case 0x1c:
		return uint8(s.voice[2].Envelope.ReadENV())
	default:
		return uint8(s.busValue)
	}
}

// Write writes a register.
func (s *Sid) Write(offset uint8, val uint8) {
	value := reg8(val)
	s.busValue = value
	s.busValueTTL = busValueLifetime

	offset &= 0x1f
	if offset < 0x15 {
		v := s.voice[offset/7]
		switch offset % 7 {
		case 0:
			v.Wave.WriteFreqLo(value)
		case 1:
			v.Wave.WriteFreqHi(value)
		case 2:
			v.Wave.WritePwLo(value)
		case 3:
			v.Wave.WritePwHi(value)
		case 4:
			v.WriteControlReg(value)
		case 5:
			v.Envelope.WriteAttackDecay(value)
		case 6:
			v.Envelope.WriteSustainRelease(value)
		}
		return
	}

	switch offset {
	case 0x15:
		s.filter.WriteFcLo(value)
	case 0x16:
		s.filter.WriteFcHi(value)
	case 0x17:
		s.filter.WriteResFilt(value)
	case 0x18:
		s.filter.WriteModeVol(value)
	}
}

// ClockOne advances the chip by a single cycle.
func (s *Sid) ClockOne() {
	s.busValueTTL--
	if s.busValueTTL <= 0 {
		s.busValue = 0
		s.busValueTTL = 0
	}

	for _, v := range s.voice {
		v.Envelope.ClockOne()
	}

	for _, v := range s.voice {
		v.Wave.ClockOne()
	}

	// All oscillators must have moved before any sync is resolved.
	for _, v := range s.voice {
		v.Wave.Synchronize()
	}

	s.filter.ClockOne(s.voice[0].Output(), s.voice[1].Output(), s.voice[2].Output(), s.extIn)
	s.extFilter.ClockOne(s.filter.Output())
}

// Clock advances the chip by delta cycles.
func (s *Sid) Clock(delta CycleCount) {
	if delta <= 0 {
		return
	}

	s.busValueTTL -= delta
	if s.busValueTTL <= 0 {
		s.busValue = 0
		s.busValueTTL = 0
	}

	for _, v := range s.voice {
		v.Envelope.Clock(delta)
	}

	// Oscillators are clocked up to every MSB toggle of a sync source, so
	// hard sync happens on the exact cycle.
	deltaOsc := delta
	for deltaOsc > 0 {
		deltaMin := deltaOsc

		for _, v := range s.voice {
			wave := v.Wave

			// Only a sync source with freq != 0 matters.
			if wave.syncDest.sync == 0 || wave.freq == 0 {
				continue
			}

			if next := wave.cyclesToMSBToggle(); next < deltaMin {
				deltaMin = next
			}
		}

		for _, v := range s.voice {
			v.Wave.Clock(deltaMin)
		}

		for _, v := range s.voice {
			v.Wave.Synchronize()
		}

		deltaOsc -= deltaMin
	}

	s.filter.Clock(delta, s.voice[0].Output(), s.voice[1].Output(), s.voice[2].Output(), s.extIn)
	s.extFilter.Clock(delta, s.filter.Output())
}
