package resid

// State is a snapshot of a Sid. Registers holds the write-only registers as
// they were last written, the rest is the internal state that cannot be
// recreated by register writes alone.
type State struct {
	Registers   [0x20]uint8
	BusValue    uint8
	BusValueTTL CycleCount

	Accumulator              [3]uint32
	ShiftRegister            [3]uint32
	RateCounter              [3]uint16
	RateCounterPeriod        [3]uint16
	ExponentialCounter       [3]int
	ExponentialCounterPeriod [3]int
	EnvelopeCounter          [3]int
	EnvelopeState            [3]EnvelopeState
	HoldZero                 [3]bool

	FilterVhp, FilterVbp, FilterVlp, FilterVnf int
	ExtFilterVlp, ExtFilterVhp, ExtFilterVo    int
}

// State takes a snapshot of the chip.
func (s *Sid) State() State {
	var st State

	for i, v := range s.voice {
		j := i * 7
		w := v.Wave
		e := v.Envelope

		st.Registers[j+0] = uint8(w.freq & 0xff)
		st.Registers[j+1] = uint8(w.freq >> 8)
		st.Registers[j+2] = uint8(w.pw & 0xff)
		st.Registers[j+3] = uint8(w.pw >> 8)
		st.Registers[j+4] = uint8(w.waveform<<4 | w.test | w.ringMod | w.sync | e.gate)
		st.Registers[j+5] = uint8(e.attack)<<4 | uint8(e.decay)
		st.Registers[j+6] = uint8(e.sustain)<<4 | uint8(e.release)

		st.Accumulator[i] = uint32(w.accumulator)
		st.ShiftRegister[i] = uint32(w.shiftReg)
		st.RateCounter[i] = uint16(e.rateCounter)
		st.RateCounterPeriod[i] = uint16(e.ratePeriod)
		st.ExponentialCounter[i] = e.exponentialCounter
		st.ExponentialCounterPeriod[i] = e.exponentialCounterPeriod
		st.EnvelopeCounter[i] = e.envelopeCounter
		st.EnvelopeState[i] = e.state
		st.HoldZero[i] = e.holdZero
	}

	f := s.filter
	st.Registers[0x15] = uint8(f.fc & 0x007)
	st.Registers[0x16] = uint8(f.fc >> 3)
	st.Registers[0x17] = uint8(f.res<<4 | f.filt)
	st.Registers[0x18] = uint8(f.voice3Off | f.hpBpLp<<4 | reg8(f.vol))

	st.FilterVhp = int(f.vhp)
	st.FilterVbp = int(f.vbp)
	st.FilterVlp = int(f.vlp)
	st.FilterVnf = int(f.vnf)

	st.ExtFilterVlp = int(s.extFilter.vlp)
	st.ExtFilterVhp = int(s.extFilter.vhp)
	st.ExtFilterVo = int(s.extFilter.vo)

	st.BusValue = uint8(s.busValue)
	st.BusValueTTL = s.busValueTTL

	return st
}

// SetState restores a snapshot taken by State. The registers are written in
// order first, then the internal state is put back on top.
func (s *Sid) SetState(st State) {
	for i := 0; i <= 0x18; i++ {
		s.Write(uint8(i), st.Registers[i])
	}

	s.busValue = reg8(st.BusValue)
	s.busValueTTL = st.BusValueTTL

	for i, v := range s.voice {
		w := v.Wave
		e := v.Envelope

		w.accumulator = reg24(st.Accumulator[i] & 0xffffff)
		w.shiftReg = reg24(st.ShiftRegister[i] & 0x7fffff)
		w.msbRising = false

		e.rateCounter = reg16(st.RateCounter[i] & 0x7fff)
		e.ratePeriod = reg16(st.RateCounterPeriod[i])
		e.exponentialCounter = st.ExponentialCounter[i]
		e.exponentialCounterPeriod = st.ExponentialCounterPeriod[i]
		e.envelopeCounter = st.EnvelopeCounter[i] & 0xff
		e.state = st.EnvelopeState[i]
		e.holdZero = st.HoldZero[i]
	}

	f := s.filter
	f.vhp = soundSample(st.FilterVhp)
	f.vbp = soundSample(st.FilterVbp)
	f.vlp = soundSample(st.FilterVlp)
	f.vnf = soundSample(st.FilterVnf)

	s.extFilter.vlp = soundSample(st.ExtFilterVlp)
	s.extFilter.vhp = soundSample(st.ExtFilterVhp)
	s.extFilter.vo = soundSample(st.ExtFilterVo)
}
