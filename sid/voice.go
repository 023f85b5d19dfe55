package resid

// Voice combines one oscillator and one envelope generator.
type Voice struct {
	Wave     *WaveformGenerator
	Envelope *EnvelopeGenerator

	// Waveform D/A "zero" level and the DC offset of the envelope
	// multiplying D/A converter.
	waveZero soundSample
	voiceDC  soundSample

	muted bool
}

func NewVoice() *Voice {
	v := &Voice{
		Wave:     NewWaveformGenerator(),
		Envelope: NewEnvelopeGenerator(),
	}
	v.SetModel(MOS6581)
	return v
}

func (v *Voice) SetModel(model Model) {
	v.Wave.SetModel(model)

	if model == MOS6581 {
		// The waveform D/A converter has a DC offset. Routing only voice 3
		// to the mixer with sustain at maximum and searching for the wave
		// output that gives the same level as a silent voice finds it at
		// 0x380.
		v.waveZero = 0x380

		// The envelope D/A converter adds another offset. At full volume
		// the mixer sits at 5.44V, a "zero" voice at 5.94V and the voice
		// spans 5.70V - 6.75V, so the offset is 0.50V/1.05V, about half
		// the dynamic range of one voice.
		v.voiceDC = 0x800 * 0xff
		return
	}

	// No DC offsets in the MOS8580.
	v.waveZero = 0x800
	v.voiceDC = 0
}

// SetSyncSource makes the oscillator of source sync and ring modulate this
// voice.
func (v *Voice) SetSyncSource(source *Voice) {
	v.Wave.SetSyncSource(source.Wave)
}

func (v *Voice) WriteControlReg(control reg8) {
	v.Wave.WriteControlReg(control)
	v.Envelope.WriteControlReg(control)
}

func (v *Voice) Reset() {
	v.Wave.Reset()
	v.Envelope.Reset()
}

// Mute silences the voice output. Oscillator and envelope keep running.
func (v *Voice) Mute(enable bool) {
	v.muted = enable
}

// Output returns the 20-bit voice output, the waveform multiplied with the
// envelope.
func (v *Voice) Output() soundSample {
	if v.muted {
		return 0
	}
	return (soundSample(v.Wave.Output())-v.waveZero)*soundSample(v.Envelope.Output()) + v.voiceDC
}
