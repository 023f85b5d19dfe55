package resid

import (
	"errors"
	"math"
	"testing"
)

func TestSampling_RejectsWithoutChange(t *testing.T) {
	cases := []struct {
		name        string
		method      SamplingMethod
		sampleFreq  float64
		passFreq    float64
		filterScale float64
		want        error
	}{
		{"zero rate", SampleFast, 0, -1, 0.97, ErrSampleRate},
		{"ring overflow", SampleResampleInterpolate, 5000, -1, 0.97, ErrRingOverflow},
		{"pass above limit", SampleResampleFast, 44100, 21000, 0.97, ErrPassFreq},
		{"scale at lower bound", SampleResampleInterpolate, 44100, -1, 0.9, ErrFilterScale},
		{"scale above one", SampleResampleInterpolate, 44100, -1, 1.01, ErrFilterScale},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewSID()
			if err := s.SetSamplingParameters(ClockFreqPAL, SampleInterpolate, 48000, -1, 0.97); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			before := s.resampler
			w0lp := s.extFilter.w0lp

			err := s.SetSamplingParameters(ClockFreqPAL, c.method, c.sampleFreq, c.passFreq, c.filterScale)
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
			if s.sampling != before.sampling || s.cyclesPerSample != before.cyclesPerSample || s.fir != nil || s.sample != nil {
				t.Fatalf("expected sampling state untouched")
			}
			if s.extFilter.w0lp != w0lp {
				t.Fatalf("expected external filter untouched")
			}
		})
	}
}

func TestSampling_Accepts(t *testing.T) {
	s := NewSID()
	if err := s.SetSamplingParameters(ClockFreqPAL, SampleResampleInterpolate, 44100, -1, 1.0); err != nil {
		t.Fatalf("unexpected error for scale 1.0: %v", err)
	}
	if err := s.SetSamplingParameters(ClockFreqNTSC, SampleResampleFast, 48000, 20000, 0.97); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SamplingMethod() != SampleResampleFast {
		t.Fatalf("expected resample-fast, got %v", s.SamplingMethod())
	}
	cps := ClockFreqNTSC/48000*(1<<fixpShift) + 0.5
	if want := CycleCount(cps); s.cyclesPerSample != want {
		t.Fatalf("expected %d cycles per sample, got %d", want, s.cyclesPerSample)
	}
}

func TestSampling_FIRDesign(t *testing.T) {
	fir, n, tables := designFIR(ClockFreqPAL, 44100, 19845, 0.97, firResInterpolate)

	if n&1 != 1 {
		t.Fatalf("expected odd filter length, got %d", n)
	}
	if tables&(tables-1) != 0 {
		t.Fatalf("expected power of two tables, got %d", tables)
	}
	if len(fir) != n*tables {
		t.Fatalf("expected %d coefficients, got %d", n*tables, len(fir))
	}

	// The table for offset zero is symmetric about its centre tap.
	sum := 0
	for j := 0; j < n; j++ {
		if fir[j] != fir[n-1-j] {
			t.Fatalf("expected symmetric table, tap %d %d != tap %d %d", j, fir[j], n-1-j, fir[n-1-j])
		}
		sum += int(fir[j])
	}

	// Unity DC gain times the filter scale.
	gain := float64(sum) / (1 << firShift)
	if math.Abs(gain-0.97) > 0.01 {
		t.Fatalf("expected DC gain about 0.97, got %f", gain)
	}
}

func TestSampling_I0(t *testing.T) {
	if got := i0(0); got != 1 {
		t.Fatalf("expected I0(0) = 1, got %f", got)
	}
	if got := i0(1); math.Abs(got-1.2660658777) > 1e-5 {
		t.Fatalf("expected I0(1) = 1.26607, got %f", got)
	}
}

func TestSampling_FastSampleCount(t *testing.T) {
	s := NewSID()
	buf := make([]int16, 50000)

	delta := CycleCount(ClockFreqPAL)
	n := s.ClockSamples(&delta, buf, 1)
	if delta != 0 {
		t.Fatalf("expected all cycles consumed, %d left", delta)
	}
	if n < 44099 || n > 44101 {
		t.Fatalf("expected about 44100 samples in one second, got %d", n)
	}
}

func TestSampling_BufferFull(t *testing.T) {
	for _, method := range []SamplingMethod{SampleFast, SampleInterpolate, SampleResampleInterpolate, SampleResampleFast} {
		s := NewSID()
		if err := s.SetSamplingParameters(ClockFreqPAL, method, 44100, -1, 0.97); err != nil {
			t.Fatalf("%v: unexpected error: %v", method, err)
		}

		buf := make([]int16, 10)
		delta := CycleCount(1000)
		if n := s.ClockSamples(&delta, buf, 1); n != 10 {
			t.Fatalf("%v: expected a full buffer, got %d", method, n)
		}
		if delta < 700 || delta > 800 {
			t.Fatalf("%v: expected about 777 cycles left, got %d", method, delta)
		}
	}
}

func TestSampling_Interleave(t *testing.T) {
	s := NewSID()
	s.SetModel(MOS8580)
	s.EnableExternalFilter(false)
	s.Write(0x18, 0x0f)
	s.Input(0x1000)

	buf := make([]int16, 20)
	for i := range buf {
		buf[i] = 0x1234
	}

	delta := CycleCount(10_000)
	n := s.ClockSamples(&delta, buf, 2)
	if n != 10 {
		t.Fatalf("expected 10 interleaved samples, got %d", n)
	}
	for i := 1; i < len(buf); i += 2 {
		if buf[i] != 0x1234 {
			t.Fatalf("expected slot %d untouched, got %d", i, buf[i])
		}
	}
}

func TestSampling_MethodsAgreeOnDC(t *testing.T) {
	level := func(method SamplingMethod) int16 {
		s := NewSID()
		s.SetModel(MOS8580)
		s.EnableFilter(false)
		s.EnableExternalFilter(false)
		if err := s.SetSamplingParameters(ClockFreqPAL, method, 44100, -1, 0.97); err != nil {
			t.Fatalf("%v: unexpected error: %v", method, err)
		}
		s.Write(0x18, 0x0f)
		s.Input(0x1000)

		buf := make([]int16, 2000)
		delta := CycleCount(20_000)
		n := s.ClockSamples(&delta, buf, 1)
		return buf[n-1]
	}

	fast := level(SampleFast)
	if fast <= 0 {
		t.Fatalf("expected a positive DC level, got %d", fast)
	}
	if got := level(SampleInterpolate); got != fast {
		t.Fatalf("expected interpolation to keep DC %d, got %d", fast, got)
	}

	for _, method := range []SamplingMethod{SampleResampleInterpolate, SampleResampleFast} {
		got := level(method)
		ratio := float64(got) / float64(fast)
		if ratio < 0.94 || ratio > 1.0 {
			t.Fatalf("%v: expected DC scaled by the filter scale, got %d for %d", method, got, fast)
		}
	}
}

func BenchmarkSampling_ResampleInterpolate(b *testing.B) {
	s := NewSID()
	if err := s.SetSamplingParameters(ClockFreqPAL, SampleResampleInterpolate, 44100, -1, 0.97); err != nil {
		b.Fatal(err)
	}
	s.Write(0x01, 0x10)
	s.Write(0x04, 0x21)
	s.Write(0x18, 0x1f)
	buf := make([]int16, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		delta := CycleCount(19656)
		for delta > 0 {
			s.ClockSamples(&delta, buf, 1)
		}
	}
}

func TestSampling_LastFIRTableWrapsToPreviousSample(t *testing.T) {
	s := NewSID()
	if err := s.SetSamplingParameters(ClockFreqPAL, SampleResampleInterpolate, 44100, -1, 0.97); err != nil {
		t.Fatal(err)
	}

	if table, shift := s.nextFIRTable(3); table != 4 || shift != 0 {
		t.Fatalf("expected table 4 with no shift, got %d, %d", table, shift)
	}
	table, shift := s.nextFIRTable(s.firRes - 1)
	if table != 0 || shift != -1 {
		t.Fatalf("expected table 0 one sample back, got %d, %d", table, shift)
	}

	for i := range s.sample {
		s.sample[i] = int16(i%1000 - 500)
	}
	s.sampleIndex = 700

	fir := s.fir[:s.firN]
	start := s.sampleIndex - s.firN + ringSize - 1
	want := 0
	for j, c := range fir {
		want += int(s.sample[start+j]) * int(c)
	}
	if got := s.convolve(table, shift); got != want {
		t.Fatalf("expected the window ending one sample early %d, got %d", want, got)
	}
}
