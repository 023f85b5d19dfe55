package main

import (
	"flag"
	"fmt"
	"strings"

	"yaspg/sidplay/psid"
	resid "yaspg/sidplay/sid"
)

type SidPlayerSettings struct {
	Subtune     int
	Usage       bool
	Model       string
	SampleRate  int
	Clock       string
	Method      string
	PassFreq    float64
	Seconds     int
	Output      string
	Backend     string
	Input       string
	NoFilter    bool
	NoExtFilter bool
	Mute        int
	Profile     string
	Stats       bool
}

// NewSidPlayerSettings returns the settings with every flag at its default.
func NewSidPlayerSettings() *SidPlayerSettings {
	opt := &SidPlayerSettings{}
	opt.register(flag.NewFlagSet("defaults", flag.ContinueOnError))
	return opt
}

func (opt *SidPlayerSettings) ParseArgs() {
	opt.register(flag.CommandLine)
	flag.Parse()
}

func (opt *SidPlayerSettings) register(fs *flag.FlagSet) {
	fs.IntVar(&opt.Subtune, "a", -1, "Subtune to play, 0 based (default: start song of the tune)")
	fs.BoolVar(&opt.Usage, "h", false, "Display usage information")
	fs.StringVar(&opt.Model, "m", "", "SID model: 6581 or 8580 (default: from the tune)")
	fs.IntVar(&opt.SampleRate, "f", 44100, "Sample rate in Hz")
	fs.StringVar(&opt.Clock, "c", "", "Clock: pal or ntsc (default: from the tune)")
	fs.StringVar(&opt.Method, "s", "fast", "Sampling method: fast, interpolate, resample or resample-fast")
	fs.Float64Var(&opt.PassFreq, "p", -1, "Pass band frequency in Hz, negative for the default")
	fs.IntVar(&opt.Seconds, "t", 0, "Play time in seconds, 0 to play until stopped")
	fs.StringVar(&opt.Output, "o", "", "Render to this WAV file instead of playing")
	fs.StringVar(&opt.Backend, "b", "sdl", "Audio backend: sdl or oto")
	fs.StringVar(&opt.Input, "i", "", "WAV or MP3 file fed to the SID audio input")
	fs.BoolVar(&opt.NoFilter, "nofilter", false, "Disable the SID filter")
	fs.BoolVar(&opt.NoExtFilter, "noextfilter", false, "Disable the external output filter")
	fs.IntVar(&opt.Mute, "mute", 0, "Voice mute mask, bit 0 is voice 1")
	fs.StringVar(&opt.Profile, "profile", "", "Write a profile: cpu or mem")
	fs.BoolVar(&opt.Stats, "stats", false, "Serve runtime statistics over HTTP")
}

func (opt *SidPlayerSettings) SamplingMethod() (resid.SamplingMethod, error) {
	switch strings.ToLower(opt.Method) {
	case "fast", "":
		return resid.SampleFast, nil
	case "interpolate":
		return resid.SampleInterpolate, nil
	case "resample":
		return resid.SampleResampleInterpolate, nil
	case "resample-fast":
		return resid.SampleResampleFast, nil
	}
	return resid.SampleFast, fmt.Errorf("unknown sampling method %q", opt.Method)
}

// SIDModel resolves the -m flag, falling back to the model the tune asks for.
func (opt *SidPlayerSettings) SIDModel(h *psid.PSIDHeader) (resid.Model, error) {
	switch opt.Model {
	case "6581":
		return resid.MOS6581, nil
	case "8580":
		return resid.MOS8580, nil
	case "":
		if h != nil && h.SIDModel() == psid.Model8580 {
			return resid.MOS8580, nil
		}
		return resid.MOS6581, nil
	}
	return resid.MOS6581, fmt.Errorf("unknown SID model %q", opt.Model)
}

// ClockFreq resolves the -c flag to the CPU clock and the vertical blank
// rate, falling back to the video standard of the tune.
func (opt *SidPlayerSettings) ClockFreq(h *psid.PSIDHeader) (clock, frameRate float64, err error) {
	switch strings.ToLower(opt.Clock) {
	case "pal":
		return resid.ClockFreqPAL, palFrameRate, nil
	case "ntsc":
		return resid.ClockFreqNTSC, ntscFrameRate, nil
	case "":
		if h != nil && h.Clock() == psid.ClockNTSC {
			return resid.ClockFreqNTSC, ntscFrameRate, nil
		}
		return resid.ClockFreqPAL, palFrameRate, nil
	}
	return 0, 0, fmt.Errorf("unknown clock %q", opt.Clock)
}
