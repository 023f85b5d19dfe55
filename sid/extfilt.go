package resid

// ExternalFilter is the RC filter network on the C64 board between the SID
// audio output and the audio output pin: a lowpass (R = 10kOhm, C = 1000pF)
// followed by a DC blocking highpass (R = 1kOhm, C = 10uF).
type ExternalFilter struct {
	enabled bool

	// Maximum mixer DC level, removed when the filter is bypassed.
	mixerDC soundSample

	// State of filters.
	vlp, vhp, vo soundSample

	// Cutoff frequencies.
	w0lp, w0hp soundSample
}

func NewExternalFilter() *ExternalFilter {
	f := &ExternalFilter{}
	f.Reset()
	f.EnableFilter(true)
	f.SetSamplingParameter(15915.6)
	f.SetModel(MOS6581)
	return f
}

func (f *ExternalFilter) Reset() {
	f.vlp = 0
	f.vhp = 0
	f.vo = 0
}

func (f *ExternalFilter) EnableFilter(enable bool) {
	f.enabled = enable
}

// SetSamplingParameter sets the lowpass cutoff to the end of the audio
// passband.
//
//	Lowpass:  w0l = 1/RC = 1/(1e4*1e-9) = 100000
//	Highpass: w0h = 1/RC = 1/(1e3*1e-5) =    100
//
// Both are multiplied with 1.048576 so the division by 1 000 000 becomes a
// right shift by 20.
func (f *ExternalFilter) SetSamplingParameter(passFreq float64) {
	f.w0hp = 105
	f.w0lp = soundSample(passFreq * (2.0 * pi * 1.048576))
	if f.w0lp > 104858 {
		f.w0lp = 104858
	}
}

func (f *ExternalFilter) SetModel(model Model) {
	if model == MOS6581 {
		// ((wave DC + voice DC)*voices + mixer DC)*volume, see voice.go
		// and filter.go.
		f.mixerDC = ((((0x800-0x380)+0x800)*0xff*3 - 0xfff*0xff/18) >> 7) * 0x0f
		return
	}

	// No DC offsets in the MOS8580.
	f.mixerDC = 0
}

// ClockOne advances the filter by a single cycle with input vi.
func (f *ExternalFilter) ClockOne(vi soundSample) {
	if !f.enabled {
		f.bypass(vi)
		return
	}

	//	Vo  = Vlp - Vhp
	//	Vlp = Vlp + w0lp*(Vi - Vlp)*dt
	//	Vhp = Vhp + w0hp*(Vlp - Vhp)*dt
	dVlp := (f.w0lp >> 8) * (vi - f.vlp) >> 12
	dVhp := f.w0hp * (f.vlp - f.vhp) >> 20
	f.vo = f.vlp - f.vhp
	f.vlp += dVlp
	f.vhp += dVhp
}

// Clock advances the filter by delta cycles in steps of at most 8 cycles.
func (f *ExternalFilter) Clock(delta CycleCount, vi soundSample) {
	if !f.enabled {
		f.bypass(vi)
		return
	}

	deltaFlt := CycleCount(8)

	for delta > 0 {
		if delta < deltaFlt {
			deltaFlt = delta
		}

		dVlp := (f.w0lp * soundSample(deltaFlt) >> 8) * (vi - f.vlp) >> 12
		dVhp := f.w0hp * soundSample(deltaFlt) * (f.vlp - f.vhp) >> 20
		f.vo = f.vlp - f.vhp
		f.vlp += dVlp
		f.vhp += dVhp

		delta -= deltaFlt
	}
}

func (f *ExternalFilter) bypass(vi soundSample) {
	f.vlp, f.vhp = 0, 0
	f.vo = vi - f.mixerDC
}

func (f *ExternalFilter) Output() soundSample {
	return f.vo
}
