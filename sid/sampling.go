package resid

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrSampleRate   = errors.New("resid: clock and sample frequency must be positive")
	ErrRingOverflow = errors.New("resid: sample frequency too low for the resampling ring buffer")
	ErrPassFreq     = errors.New("resid: pass frequency above 0.9 of the Nyquist frequency")
	ErrFilterScale  = errors.New("resid: filter scale outside (0.9, 1.0]")
)

// Resampling constants. The error of the FIR tables is below 2^-16 with
// linear interpolation between 285 tables per sample, or with 51473 tables
// and nearest neighbour lookup.
const (
	firN              = 125
	firResInterpolate = 285
	firResFast        = 51473
	firShift          = 15
	ringSize          = 16384

	// Fixed point 16.16 arithmetics for sample offsets.
	fixpShift = 16
	fixpMask  = 0xffff
)

// resampler is the sample generation state of a Sid.
type resampler struct {
	clockFreq       float64
	sampling        SamplingMethod
	cyclesPerSample CycleCount
	sampleOffset    CycleCount
	samplePrev      int16

	// Resampling only. The ring holds every sample twice so a convolution
	// never has to wrap.
	sampleIndex int
	sample      []int16
	fir         []int16
	firN        int
	firRes      int
}

// SamplingMethod returns the current sample generation method.
func (s *Sid) SamplingMethod() SamplingMethod {
	return s.sampling
}

// SetSamplingParameters sets the chip clock, the sample generation method
// and the output sample rate. Use ClockFreqPAL or ClockFreqNTSC for a C64.
//
// A negative passFreq selects the default end of the passband, 20kHz or
// 0.9*sampleFreq/2 for sample rates below about 44.1kHz. For the resampling
// methods the following must hold:
//
//	125*clockFreq/sampleFreq < 16384
//	passFreq <= 0.9*sampleFreq/2
//	0.9 < filterScale <= 1.0
//
// So with a clock of about 1MHz the sample rate cannot be set below about
// 8kHz. On error nothing is changed.
func (s *Sid) SetSamplingParameters(clockFreq float64, method SamplingMethod, sampleFreq, passFreq, filterScale float64) error {
	if clockFreq <= 0 || sampleFreq <= 0 {
		return ErrSampleRate
	}

	resample := method == SampleResampleInterpolate || method == SampleResampleFast

	if passFreq < 0 {
		passFreq = 20000
		if 2*passFreq/sampleFreq >= 0.9 {
			passFreq = 0.9 * sampleFreq / 2
		}
	} else if resample && passFreq > 0.9*sampleFreq/2 {
		return fmt.Errorf("%w: %.0fHz at %.0fHz", ErrPassFreq, passFreq, sampleFreq)
	}

	if resample {
		if firN*clockFreq/sampleFreq >= ringSize {
			return fmt.Errorf("%w: %.0fHz at clock %.0fHz", ErrRingOverflow, sampleFreq, clockFreq)
		}
		if filterScale <= 0.9 || filterScale > 1.0 {
			return fmt.Errorf("%w: %g", ErrFilterScale, filterScale)
		}
	}

	s.extFilter.SetSamplingParameter(passFreq)

	s.clockFreq = clockFreq
	s.sampling = method
	s.cyclesPerSample = CycleCount(clockFreq/sampleFreq*(1<<fixpShift) + 0.5)
	s.sampleOffset = 0
	s.samplePrev = 0

	if !resample {
		s.sample = nil
		s.fir = nil
		return nil
	}

	res := firResFast
	if method == SampleResampleInterpolate {
		res = firResInterpolate
	}
	s.fir, s.firN, s.firRes = designFIR(clockFreq, sampleFreq, passFreq, filterScale, res)

	if s.sample == nil {
		s.sample = make([]int16, ringSize*2)
	} else {
		clear(s.sample)
	}
	s.sampleIndex = 0

	return nil
}

// designFIR computes firRes windowed sinc tables of firN taps each, for
// fractional sample offsets i/firRes.
//
// The stopband attenuation is 96dB for 16 bit output. The order and beta
// follow the Kaiser window estimate of kaiserord: with the constraints above
// the filter order is at most 124, since N >= (96.33 - 7.95)/(2.285*0.1*pi).
func designFIR(clockFreq, sampleFreq, passFreq, filterScale float64, res int) (fir []int16, n, tables int) {
	a := -20 * math.Log10(1.0/(1<<16))

	// A fraction of the bandwidth is the transition band, with the cutoff
	// midway through it.
	dw := (1 - 2*passFreq/sampleFreq) * pi
	wc := (2*passFreq/sampleFreq + 1) * pi / 2

	beta := 0.1102 * (a - 8.7)
	i0Beta := i0(beta)

	// The order is the number of zero crossings, even since sinc is
	// symmetric about x = 0.
	order := int((a-7.95)/(2.285*dw) + 0.5)
	order += order & 1

	samplesPerCycle := sampleFreq / clockFreq
	cyclesPerSample := clockFreq / sampleFreq

	// The filter length is the order + 1, odd.
	n = int(float64(order)*cyclesPerSample) + 1
	n |= 1

	// The table resolution is a power of two, making the fixed point sample
	// offset a whole multiple of it.
	tables = 1 << int(math.Ceil(math.Log2(float64(res)/cyclesPerSample)))

	fir = make([]int16, n*tables)

	for i := 0; i < tables; i++ {
		offset := i*n + n/2
		jOffset := float64(i) / float64(tables)

		for j := -n / 2; j <= n/2; j++ {
			jx := float64(j) - jOffset
			wt := wc * jx / cyclesPerSample
			temp := jx / float64(n/2)

			kaiser := 0.0
			if math.Abs(temp) <= 1 {
				kaiser = i0(beta*math.Sqrt(1-temp*temp)) / i0Beta
			}

			sincWt := 1.0
			if math.Abs(wt) >= 1e-6 {
				sincWt = math.Sin(wt) / wt
			}

			val := (1 << firShift) * filterScale * samplesPerCycle * wc / pi * sincWt * kaiser
			fir[offset+j] = int16(math.Floor(val + 0.5))
		}
	}

	return fir, n, tables
}

// i0 is the zeroth order modified Bessel function of the first kind,
// summed until a term drops below 1e-6 of the sum.
func i0(x float64) float64 {
	const epsilon = 1e-6

	sum, u := 1.0, 1.0
	halfx := x / 2

	for n := 1.0; ; n++ {
		temp := halfx / n
		u *= temp * temp
		sum += u
		if u < epsilon*sum {
			return sum
		}
	}
}

// ClockSamples advances the chip by up to *delta cycles while writing
// samples to buf at every interleave'th position. It returns the number of
// samples written. When buf fills up first, *delta holds the cycles left;
// otherwise it is zero on return.
//
//	for delta > 0 {
//		n := sid.ClockSamples(&delta, buf, 1)
//		write(buf[:n])
//	}
func (s *Sid) ClockSamples(delta *CycleCount, buf []int16, interleave int) int {
	if interleave < 1 {
		interleave = 1
	}
	n := (len(buf) + interleave - 1) / interleave

	switch s.sampling {
	case SampleInterpolate:
		return s.clockInterpolate(delta, buf, n, interleave)
	case SampleResampleInterpolate:
		return s.clockResampleInterpolate(delta, buf, n, interleave)
	case SampleResampleFast:
		return s.clockResampleFast(delta, buf, n, interleave)
	default:
		return s.clockFast(delta, buf, n, interleave)
	}
}

// clockFast picks the output at the cycle nearest each sample point.
func (s *Sid) clockFast(delta *CycleCount, buf []int16, n, interleave int) int {
	count := 0

	for {
		nextSampleOffset := s.sampleOffset + s.cyclesPerSample + (1 << (fixpShift - 1))
		deltaSample := nextSampleOffset >> fixpShift

		if deltaSample > *delta {
			break
		}
		if count >= n {
			return count
		}

		s.Clock(deltaSample)
		*delta -= deltaSample
		s.sampleOffset = (nextSampleOffset & fixpMask) - (1 << (fixpShift - 1))
		buf[count*interleave] = int16(s.Output())
		count++
	}

	s.Clock(*delta)
	s.sampleOffset -= *delta << fixpShift
	*delta = 0
	return count
}

// clockInterpolate interpolates linearly between the outputs of the two
// cycles around each sample point.
func (s *Sid) clockInterpolate(delta *CycleCount, buf []int16, n, interleave int) int {
	count := 0

	for {
		nextSampleOffset := s.sampleOffset + s.cyclesPerSample
		deltaSample := nextSampleOffset >> fixpShift

		if deltaSample > *delta {
			break
		}
		if count >= n {
			return count
		}

		s.clockKeepPrev(deltaSample)
		*delta -= deltaSample
		s.sampleOffset = nextSampleOffset & fixpMask

		now := int16(s.Output())
		buf[count*interleave] = s.samplePrev + int16(int(s.sampleOffset)*(int(now)-int(s.samplePrev))>>fixpShift)
		count++
		s.samplePrev = now
	}

	s.clockKeepPrev(*delta)
	s.sampleOffset -= *delta << fixpShift
	*delta = 0
	return count
}

// clockKeepPrev clocks cycle by cycle, saving the output before the last
// cycle in samplePrev.
func (s *Sid) clockKeepPrev(cycles CycleCount) {
	if cycles <= 0 {
		return
	}
	for i := CycleCount(0); i < cycles-1; i++ {
		s.ClockOne()
	}
	s.samplePrev = int16(s.Output())
	s.ClockOne()
}

// clockRing clocks cycle by cycle, storing every output in the ring.
func (s *Sid) clockRing(cycles CycleCount) {
	for i := CycleCount(0); i < cycles; i++ {
		s.ClockOne()
		v := int16(s.Output())
		s.sample[s.sampleIndex] = v
		s.sample[s.sampleIndex+ringSize] = v
		s.sampleIndex = (s.sampleIndex + 1) & (ringSize - 1)
	}
}

// nextFIRTable returns the table after table and the sample shift to
// convolve it with. Past the last table it wraps to the first one using the
// previous sample.
func (r *resampler) nextFIRTable(table int) (int, int) {
	table++
	if table == r.firRes {
		return 0, -1
	}
	return table, 0
}

// convolve applies FIR table number table to the samples ending at the
// ring index, moved by shift samples.
func (s *Sid) convolve(table, shift int) int {
	fir := s.fir[table*s.firN : (table+1)*s.firN]
	start := s.sampleIndex - s.firN + ringSize + shift
	samples := s.sample[start : start+s.firN]

	v := 0
	for j, c := range fir {
		v += int(samples[j]) * int(c)
	}
	return v
}

func saturate16(v int) int16 {
	const half = 1 << 15
	if v >= half {
		return half - 1
	}
	if v < -half {
		return -half
	}
	return int16(v)
}

// clockResampleInterpolate convolves the cycle outputs with the windowed
// sinc, interpolating linearly between the two nearest FIR tables.
func (s *Sid) clockResampleInterpolate(delta *CycleCount, buf []int16, n, interleave int) int {
	count := 0

	for {
		nextSampleOffset := s.sampleOffset + s.cyclesPerSample
		deltaSample := nextSampleOffset >> fixpShift

		if deltaSample > *delta {
			break
		}
		if count >= n {
			return count
		}

		s.clockRing(deltaSample)
		*delta -= deltaSample
		s.sampleOffset = nextSampleOffset & fixpMask

		firOffset := int(s.sampleOffset) * s.firRes >> fixpShift
		firOffsetRmd := int(s.sampleOffset) * s.firRes & fixpMask

		v1 := s.convolve(firOffset, 0)
		v2 := s.convolve(s.nextFIRTable(firOffset))

		v := v1 + (firOffsetRmd*(v2-v1))>>fixpShift
		buf[count*interleave] = saturate16(v >> firShift)
		count++
	}

	s.clockRing(*delta)
	s.sampleOffset -= *delta << fixpShift
	*delta = 0
	return count
}

// clockResampleFast convolves the cycle outputs with the nearest FIR table.
func (s *Sid) clockResampleFast(delta *CycleCount, buf []int16, n, interleave int) int {
	count := 0

	for {
		nextSampleOffset := s.sampleOffset + s.cyclesPerSample
		deltaSample := nextSampleOffset >> fixpShift

		if deltaSample > *delta {
			break
		}
		if count >= n {
			return count
		}

		s.clockRing(deltaSample)
		*delta -= deltaSample
		s.sampleOffset = nextSampleOffset & fixpMask

		firOffset := int(s.sampleOffset) * s.firRes >> fixpShift
		v := s.convolve(firOffset, 0)
		buf[count*interleave] = saturate16(v >> firShift)
		count++
	}

	s.clockRing(*delta)
	s.sampleOffset -= *delta << fixpShift
	*delta = 0
	return count
}
