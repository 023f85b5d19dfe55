// Package resid emulates the MOS6581 and MOS8580 SID sound chips.
//
// The emulation is cycle based. A caller writes registers and advances the
// chip either one cycle at a time or in batches of cycles; the chip output can
// be read directly or converted to audio samples at an arbitrary rate.
// A Sid must be driven by one caller at a time, no locking is done inside the
// package.
package resid

// Model selects the SID chip: 6581 or 8580
type Model byte

// SamplingMethod selects how chip output is converted to audio samples.
type SamplingMethod byte

type reg4 uint8
type reg8 uint8
type reg12 uint16
type reg16 uint16
type reg24 uint32

// CycleCount counts SID clock cycles.
type CycleCount int

type soundSample int

const (
	// 6581 SID
	MOS6581 Model = iota

	// 8580 SID
	MOS8580
)

func (m Model) String() string {
	if m == MOS8580 {
		return "MOS8580"
	}
	return "MOS6581"
}

const (
	// SampleFast picks the chip output nearest to each sample point.
	SampleFast SamplingMethod = iota

	// SampleInterpolate interpolates linearly between the two chip outputs
	// surrounding each sample point.
	SampleInterpolate

	// SampleResampleInterpolate runs the chip output through a windowed sinc
	// filter, interpolating between FIR tables.
	SampleResampleInterpolate

	// SampleResampleFast runs the chip output through a windowed sinc filter
	// using the nearest FIR table.
	SampleResampleFast
)

func (m SamplingMethod) String() string {
	switch m {
	case SampleInterpolate:
		return "interpolate"
	case SampleResampleInterpolate:
		return "resample"
	case SampleResampleFast:
		return "resample-fast"
	default:
		return "fast"
	}
}

// Clock frequencies of the two common host machines.
const (
	ClockFreqPAL  = 985248.0
	ClockFreqNTSC = 1022727.0
)

const pi = 3.1415926535897932385
