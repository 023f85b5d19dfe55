package resid

import (
	"errors"
	"sync"
)

// ErrFcCurve is returned for a cutoff curve that cannot be interpolated.
var ErrFcCurve = errors.New("resid: invalid filter cutoff curve")

// Filter is the SID filter, modeled as a two-integrator-loop biquadratic
// filter. Vhp is the output of the summer, Vbp the output of the first
// integrator and Vlp the output of the second. An extra inverter in the
// bandpass feedback gives inverted outputs with levels independent of Q,
// which matches measurements on the real chip.
//
// Emulation is excellent except at high resonance combined with high sustain
// levels, where the chip's NMOS "op-amps" misbehave.
type Filter struct {
	enabled bool

	// Cutoff frequency, 11 bits.
	fc reg12

	// Resonance.
	res reg8

	// Selects which inputs to route through filter.
	filt reg8

	// Switch voice 3 off.
	voice3Off reg8

	// Highpass, bandpass, and lowpass filter modes.
	hpBpLp reg8

	// Output master volume.
	vol reg4

	// Mixer DC offset.
	mixerDC soundSample

	// State of filter.
	vhp soundSample // highpass
	vbp soundSample // bandpass
	vlp soundSample // lowpass
	vnf soundSample // not filtered

	// Cutoff frequency, resonance.
	w0, w0Ceil1, w0CeilDt soundSample
	div1024Q              soundSample

	// Cutoff frequency table, shared per model unless a custom curve is set.
	f0       *[2048]int
	f0Points []FCPoint
}

// Maximum cutoff frequency is specified as FCmax = 2.6e-5/C = 2.6e-5/2200e-12
// = 11818.
//
// Measurements indicate a range of about 220Hz - 18kHz on a MOS6581 fitted
// with 470pF capacitors. The mapping has the shape of tanh with a
// discontinuity at FCHI = 0x80. The MOS8580 almost perfectly follows the
// specified linear mapping from 30Hz to 12kHz.
//
// The mappings were measured by feeding an external signal through the
// bandpass output at full resonance, since the chip cannot generate
// waveforms above 4kHz itself. Cutoff characteristics vary between chips;
// these are two particular Commodore 64s.
var f0Points6581 = []FCPoint{
	//  FC      f        FCHI FCLO
	// ----------------------------
	{0, 220},      // 0x00      - repeated end point
	{0, 220},      // 0x00
	{128, 230},    // 0x10
	{256, 250},    // 0x20
	{384, 300},    // 0x30
	{512, 420},    // 0x40
	{640, 780},    // 0x50
	{768, 1600},   // 0x60
	{832, 2300},   // 0x68
	{896, 3200},   // 0x70
	{960, 4300},   // 0x78
	{992, 5000},   // 0x7c
	{1008, 5400},  // 0x7e
	{1016, 5700},  // 0x7f
	{1023, 6000},  // 0x7f 0x07
	{1023, 6000},  // 0x7f 0x07 - discontinuity
	{1024, 4600},  // 0x80      -
	{1024, 4600},  // 0x80
	{1032, 4800},  // 0x81
	{1056, 5300},  // 0x84
	{1088, 6000},  // 0x88
	{1120, 6600},  // 0x8c
	{1152, 7200},  // 0x90
	{1280, 9500},  // 0xa0
	{1408, 12000}, // 0xb0
	{1536, 14500}, // 0xc0
	{1664, 16000}, // 0xd0
	{1792, 17100}, // 0xe0
	{1920, 17700}, // 0xf0
	{2047, 18000}, // 0xff 0x07
	{2047, 18000}, // 0xff 0x07 - repeated end point
}

var f0Points8580 = []FCPoint{
	//  FC      f        FCHI FCLO
	// ----------------------------
	{0, 0},        // 0x00      - repeated end point
	{0, 0},        // 0x00
	{128, 800},    // 0x10
	{256, 1600},   // 0x20
	{384, 2500},   // 0x30
	{512, 3300},   // 0x40
	{640, 4100},   // 0x50
	{768, 4800},   // 0x60
	{896, 5600},   // 0x70
	{1024, 6500},  // 0x80
	{1152, 7500},  // 0x90
	{1280, 8400},  // 0xa0
	{1408, 9200},  // 0xb0
	{1536, 9800},  // 0xc0
	{1664, 10500}, // 0xd0
	{1792, 11000}, // 0xe0
	{1920, 11700}, // 0xf0
	{2047, 12500}, // 0xff 0x07
	{2047, 12500}, // 0xff 0x07 - repeated end point
}

var (
	f0Tables     [2]*[2048]int
	f0TablesOnce [2]sync.Once
)

// cutoffTable returns the shared FC to cutoff frequency table of model.
func cutoffTable(model Model) *[2048]int {
	m, points := 0, f0Points6581
	if model == MOS8580 {
		m, points = 1, f0Points8580
	}

	f0TablesOnce[m].Do(func() {
		t := &[2048]int{}
		interpolate(points, tablePlotter(t[:]), 1.0)
		f0Tables[m] = t
	})
	return f0Tables[m]
}

func NewFilter() *Filter {
	f := &Filter{}
	f.EnableFilter(true)
	f.SetModel(MOS6581)
	f.Reset()
	return f
}

func (f *Filter) EnableFilter(enable bool) {
	f.enabled = enable
}

func (f *Filter) SetModel(model Model) {
	if model == MOS6581 {
		// The mixer "zero" level is 5.50V at zero volume and 5.44V at full
		// volume, a DC offset of -0.06V, about -1/18 of the dynamic range
		// of one voice (see voice.go).
		f.mixerDC = -0xfff * 0xff / 18 >> 7
		f.f0Points = f0Points6581
	} else {
		// No DC offsets in the MOS8580.
		f.mixerDC = 0
		f.f0Points = f0Points8580
	}
	f.f0 = cutoffTable(model)

	f.setW0()
	f.setQ()
}

func (f *Filter) Reset() {
	f.fc = 0
	f.res = 0
	f.filt = 0
	f.voice3Off = 0
	f.hpBpLp = 0
	f.vol = 0

	f.vhp = 0
	f.vbp = 0
	f.vlp = 0
	f.vnf = 0

	f.setW0()
	f.setQ()
}

// FcDefault returns a copy of the interpolation points of the current
// cutoff curve.
func (f *Filter) FcDefault() []FCPoint {
	return append([]FCPoint(nil), f.f0Points...)
}

// SetFcCurve replaces the cutoff curve with one interpolated through points.
// X values must be strictly increasing within [0, 2047]; the end points are
// repeated automatically. The curve is private to this filter and lasts until
// the next SetModel.
func (f *Filter) SetFcCurve(points []FCPoint) error {
	if len(points) < 2 || len(points) > 0x800 {
		return ErrFcCurve
	}

	prev := -1
	for _, p := range points {
		if p.X <= prev || p.X > 2047 {
			return ErrFcCurve
		}
		prev = p.X
	}

	fc := make([]FCPoint, 0, len(points)+2)
	fc = append(fc, points[0])
	fc = append(fc, points...)
	fc = append(fc, points[len(points)-1])

	t := &[2048]int{}
	interpolate(fc, tablePlotter(t[:]), 1.0)

	f.f0 = t
	f.f0Points = fc
	f.setW0()
	return nil
}

// ClockOne advances the filter by a single cycle. The inputs are the 20-bit
// voice outputs and the external input.
func (f *Filter) ClockOne(voice1, voice2, voice3, extIn soundSample) {
	vi, ok := f.route(voice1, voice2, voice3, extIn)
	if !ok {
		return
	}

	dVbp := f.w0Ceil1 * f.vhp >> 20
	dVlp := f.w0Ceil1 * f.vbp >> 20
	f.vbp -= dVbp
	f.vlp -= dVlp
	f.vhp = (f.vbp * f.div1024Q >> 10) - f.vlp - vi
}

// Clock advances the filter by delta cycles. Unlike the oscillator and the
// envelope this is an approximation: the integrators step up to 8 cycles at
// a time with w0 capped at 4kHz.
func (f *Filter) Clock(delta CycleCount, voice1, voice2, voice3, extIn soundSample) {
	vi, ok := f.route(voice1, voice2, voice3, extIn)
	if !ok {
		return
	}

	// Maximum delta cycles for the filter to work satisfactorily under
	// current cutoff frequency and resonance constraints is approximately 8.
	deltaFlt := CycleCount(8)

	for delta > 0 {
		if delta < deltaFlt {
			deltaFlt = delta
		}

		// delta is converted to seconds given a 1MHz clock by dividing
		// with 1 000 000, in two steps to avoid overflow.
		//
		//	Vhp = Vbp/Q - Vlp - Vi
		//	dVbp = -w0*Vhp*dt
		//	dVlp = -w0*Vbp*dt
		w0Delta := f.w0CeilDt * soundSample(deltaFlt) >> 6

		dVbp := w0Delta * f.vhp >> 14
		dVlp := w0Delta * f.vbp >> 14
		f.vbp -= dVbp
		f.vlp -= dVlp
		f.vhp = (f.vbp * f.div1024Q >> 10) - f.vlp - vi

		delta -= deltaFlt
	}
}

// route scales the inputs down to 13 bits and splits them between the
// filter input, which it returns, and vnf. It returns false when the filter
// is disabled, in which case everything went to vnf.
func (f *Filter) route(voice1, voice2, voice3, extIn soundSample) (soundSample, bool) {
	voice1 >>= 7
	voice2 >>= 7

	// NB! Voice 3 is not silenced by voice3off if it is routed through the
	// filter.
	if f.voice3Off != 0 && f.filt&0x04 == 0 {
		voice3 = 0
	} else {
		voice3 >>= 7
	}

	extIn >>= 7

	// Not part of the chip, but useful for testing.
	if !f.enabled {
		f.vnf = voice1 + voice2 + voice3 + extIn
		f.vhp, f.vbp, f.vlp = 0, 0, 0
		return 0, false
	}

	var vi soundSample
	f.vnf = 0

	if f.filt&0x1 != 0 {
		vi += voice1
	} else {
		f.vnf += voice1
	}
	if f.filt&0x2 != 0 {
		vi += voice2
	} else {
		f.vnf += voice2
	}
	if f.filt&0x4 != 0 {
		vi += voice3
	} else {
		f.vnf += voice3
	}
	if f.filt&0x8 != 0 {
		vi += extIn
	} else {
		f.vnf += extIn
	}

	return vi, true
}

// Output returns the mixer output: the selected filter outputs plus the
// unfiltered sum, times volume.
func (f *Filter) Output() soundSample {
	if !f.enabled {
		return (f.vnf + f.mixerDC) * soundSample(f.vol)
	}

	// The filter outputs are summed without weighting, as confirmed by
	// sampling e.g. bandpass, lowpass and bandpass+lowpass on a real chip.
	var vf soundSample
	if f.hpBpLp&0x1 != 0 {
		vf += f.vlp
	}
	if f.hpBpLp&0x2 != 0 {
		vf += f.vbp
	}
	if f.hpBpLp&0x4 != 0 {
		vf += f.vhp
	}

	return (f.vnf + vf + f.mixerDC) * soundSample(f.vol)
}

func (f *Filter) WriteFcLo(fcLo reg8) {
	f.fc = (f.fc & 0x7f8) | reg12(fcLo&0x007)
	f.setW0()
}

func (f *Filter) WriteFcHi(fcHi reg8) {
	f.fc = ((reg12(fcHi) << 3) & 0x7f8) | (f.fc & 0x007)
	f.setW0()
}

func (f *Filter) WriteResFilt(resFilt reg8) {
	f.res = (resFilt >> 4) & 0x0f
	f.setQ()

	f.filt = resFilt & 0x0f
}

func (f *Filter) WriteModeVol(modeVol reg8) {
	f.voice3Off = modeVol & 0x80
	f.hpBpLp = (modeVol >> 4) & 0x07
	f.vol = reg4(modeVol & 0x0f)
}

// Cutoff frequency ceilings keeping the 1 cycle and the delta cycle
// integrators stable. The factor 1.048576 turns division by 1 000 000 into a
// right shift by 20.
var (
	w0Max1  = cutoffToW0(16000)
	w0MaxDt = cutoffToW0(4000)
)

func cutoffToW0(freq float64) soundSample {
	return soundSample(2 * pi * freq * 1.048576)
}

func (f *Filter) setW0() {
	f.w0 = cutoffToW0(float64(f.f0[f.fc]))

	f.w0Ceil1 = f.w0
	if f.w0Ceil1 > w0Max1 {
		f.w0Ceil1 = w0Max1
	}

	f.w0CeilDt = f.w0
	if f.w0CeilDt > w0MaxDt {
		f.w0CeilDt = w0MaxDt
	}
}

// setQ maps resonance linearly onto Q in about [0.707, 1.7]. The factor 1024
// is removed later by a right shift of 10.
func (f *Filter) setQ() {
	f.div1024Q = soundSample(1024.0 / (0.707 + 1.0*float64(f.res)/15.0))
}
