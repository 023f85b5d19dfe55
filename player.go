package main

import (
	"fmt"
	"log"
	"os"
	"slices"
	"sync"

	"yaspg/sidplay/output"
	"yaspg/sidplay/psid"
	resid "yaspg/sidplay/sid"

	"github.com/beevik/go6502/cpu"
)

const palFrameRate float64 = 50.0
const ntscFrameRate float64 = 60.0

// Upper bound on instructions per call into the tune.
const maxInstructions int = 0xFFFF

// CIA 1 timer A value the kernal sets up, used when a CIA tune never
// programs the timer.
const ciaDefaultTimer = 0x4025

var logger = log.New(os.Stderr, "yaspg: ", 0)

// SidPlayer runs a tune on an emulated 6510 and renders the SID output.
// Register writes reach the SID at the CPU cycle they happen on: before each
// access the SID is clocked up to the current cycle, and the samples produced
// are queued for Render. Render may be called from an audio goroutine; all
// exported methods are serialized by mu.
type SidPlayer struct {
	mu sync.Mutex

	opt   *SidPlayerSettings
	sid   *resid.Sid
	mem   *C64Memory
	cpu   *cpu.CPU
	tune  *psid.Tune
	input *output.Input

	model       resid.Model
	method      resid.SamplingMethod
	clockFreq   float64
	frameRate   float64
	playAddress uint16
	currentSong int
	muteMask    int

	// Chip state right after configuration. Every subtune starts from it.
	powerOn resid.State

	isLoaded      bool
	isInitialized bool
	isPlaying     bool
	initializing  bool

	framePeriod uint64
	frameStart  uint64
	sidCycle    uint64
	limit       uint64
	inputStep   uint64

	pending    []int16
	pendingPos int

	done     chan struct{}
	doneOnce sync.Once
}

func NewSidPlayer(opt *SidPlayerSettings) *SidPlayer {
	if opt == nil {
		opt = NewSidPlayerSettings()
	}

	player := &SidPlayer{
		opt:       opt,
		frameRate: palFrameRate,
		clockFreq: resid.ClockFreqPAL,
		model:     resid.MOS6581,
		muteMask:  opt.Mute,
		done:      make(chan struct{}),
	}
	player.framePeriod = uint64(player.clockFreq / player.frameRate)
	player.mem = NewC64Memory()
	player.mem.AttachIO(player)
	player.cpu = cpu.NewCPU(cpu.NMOS, player.mem)
	player.sid = resid.NewSID()
	return player
}

// Load reads the tune at fileName and, when set, the external input file.
func (s *SidPlayer) Load(fileName string) error {
	tune, err := psid.LoadFile(fileName)
	if err != nil {
		return err
	}

	if s.opt.Input != "" {
		in, err := output.LoadInput(s.opt.Input)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.input = in
		s.mu.Unlock()
	}

	return s.LoadTune(tune)
}

// LoadTune installs an already parsed tune.
func (s *SidPlayer) LoadTune(tune *psid.Tune) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isPlaying {
		return fmt.Errorf("cannot load while playing")
	}

	s.tune = tune
	s.currentSong = int(tune.Header.StartSong) - 1
	if s.opt.Subtune > -1 {
		s.currentSong = s.opt.Subtune
	}
	s.isLoaded = true
	s.isInitialized = false
	return nil
}

// Header returns the header of the loaded tune, or nil.
func (s *SidPlayer) Header() *psid.PSIDHeader {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tune == nil {
		return nil
	}
	return &s.tune.Header
}

// Init configures the SID for the loaded tune and the settings.
func (s *SidPlayer) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init()
}

func (s *SidPlayer) init() error {
	var h *psid.PSIDHeader
	if s.tune != nil {
		h = &s.tune.Header
	}

	model, err := s.opt.SIDModel(h)
	if err != nil {
		return err
	}
	clock, frameRate, err := s.opt.ClockFreq(h)
	if err != nil {
		return err
	}
	method, err := s.opt.SamplingMethod()
	if err != nil {
		return err
	}

	s.sid.SetModel(model)
	s.sid.Reset()
	err = s.sid.SetSamplingParameters(clock, method, float64(s.opt.SampleRate), s.opt.PassFreq, 0.97)
	if err != nil {
		return err
	}
	s.sid.EnableFilter(!s.opt.NoFilter)
	s.sid.EnableExternalFilter(!s.opt.NoExtFilter)

	s.model = model
	s.method = method
	s.clockFreq = clock
	s.frameRate = frameRate
	s.powerOn = s.sid.State()

	if s.input != nil && s.input.SampleRate > 0 {
		s.inputStep = max(1, uint64(clock/float64(s.input.SampleRate)))
	}

	fmt.Printf("Sid model = %s, sampling = %s\n", model, method)
	s.isInitialized = true
	return nil
}

// Start runs the init routine of the current subtune and begins playback.
func (s *SidPlayer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isLoaded {
		return fmt.Errorf("no tune loaded")
	}
	if !s.isInitialized {
		if err := s.init(); err != nil {
			return err
		}
	}

	s.startSong(s.currentSong)
	s.isPlaying = true
	return nil
}

// Stop ends playback. Render returns what is left, then nothing.
func (s *SidPlayer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finish()
}

func (s *SidPlayer) finish() {
	s.isPlaying = false
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed once playback has ended.
func (s *SidPlayer) Done() <-chan struct{} {
	return s.done
}

func (s *SidPlayer) NextTune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playTune(s.currentSong + 1)
}

func (s *SidPlayer) PrevTune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playTune(s.currentSong - 1)
}

func (s *SidPlayer) playTune(num int) {
	if !s.isLoaded {
		return
	}
	songs := max(1, int(s.tune.Header.Songs))
	s.currentSong = (num + songs) % songs
	if s.isPlaying {
		s.startSong(s.currentSong)
	}
}

// ToggleMute flips the mute state of voice (0-2) and reports whether it is
// now muted.
func (s *SidPlayer) ToggleMute(voice int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.muteMask ^= 1 << voice
	muted := s.muteMask&(1<<voice) != 0
	s.sid.Mute(voice, muted)
	return muted
}

func (s *SidPlayer) applyMute() {
	for v := 0; v < 3; v++ {
		s.sid.Mute(v, s.muteMask&(1<<v) != 0)
	}
}

// startSong resets the machine and runs the init routine of song.
func (s *SidPlayer) startSong(song int) {
	h := &s.tune.Header
	if song < 0 || song >= int(h.Songs) {
		song = 0
	}
	s.currentSong = song

	s.mem.Clear()
	s.tune.LoadData(s.mem)
	s.mem.StoreByte(0x01, 0x37)

	s.sid.SetState(s.powerOn)
	s.applyMute()

	s.cpu.Cycles = 0
	s.sidCycle = 0
	s.pending = s.pending[:0]
	s.pendingPos = 0

	fmt.Printf("Playing subtune %d of %d\n", song+1, h.Songs)

	s.initializing = true
	s.callRoutine(h.InitAddress, uint8(song), true)
	s.initializing = false

	s.playAddress = h.PlayAddress
	if s.playAddress == 0 {
		logger.Println("warning: SID has play address 0, reading from interrupt vector instead")
		if s.mem.LoadByte(0x01)&0x07 == 0x5 {
			s.playAddress = s.mem.ReadWord(0xFFFE)
		} else {
			s.playAddress = s.mem.ReadWord(0x0314)
		}
		logger.Printf("new play address is $%04X", s.playAddress)
	}

	s.updateFramePeriod()

	s.frameStart = s.cpu.Cycles
	s.sidCycle = s.cpu.Cycles
	s.limit = 0
	if s.opt.Seconds > 0 {
		s.limit = s.frameStart + uint64(float64(s.opt.Seconds)*s.clockFreq)
	}

	fmt.Printf("cpu_clk: %.0f[Hz] samplerate: %d[Hz] frame period: %d[cycles] timing: %t\n",
		s.clockFreq, s.opt.SampleRate, s.framePeriod, h.UsesCIATimer(song))
}

func (s *SidPlayer) updateFramePeriod() {
	s.framePeriod = uint64(s.clockFreq / s.frameRate)

	if s.tune.Header.UsesCIATimer(s.currentSong) {
		timer := uint64(s.mem.ReadWord(0xDC04))
		if timer == 0 {
			timer = ciaDefaultTimer
		}
		s.framePeriod = timer
	}
}

// callRoutine runs the 6510 from addr until it returns to the caller. During
// init the VIC raster counter is advanced after each instruction so that
// tunes waiting for the raster make progress.
func (s *SidPlayer) callRoutine(addr uint16, a uint8, raster bool) {
	s.cpu.SetPC(addr)
	s.cpu.Reg.A = a
	s.cpu.Reg.X = 0
	s.cpu.Reg.Y = 0
	s.cpu.Reg.SP = 0xFF

	for instr := 0; !s.returned(); instr++ {
		if instr > maxInstructions {
			logger.Printf("warning: CPU executed a high number of instructions at $%04X, breaking", addr)
			return
		}

		s.cpu.Step()

		if raster {
			s.stepRaster()
			continue
		}

		// Jump into the kernal interrupt exit.
		if s.mem.LoadByte(0x01)&0x07 != 0x5 && (s.cpu.Reg.PC == 0xEA31 || s.cpu.Reg.PC == 0xEA81) {
			return
		}
	}
}

// returned reports whether the next instruction is BRK, or RTS/RTI from the
// top of the stack.
func (s *SidPlayer) returned() bool {
	inst := s.cpu.InstSet.Lookup(s.mem.LoadByte(s.cpu.Reg.PC))

	switch {
	case inst.Opcode == 0x00:
		return true
	case inst.Opcode == 0x40 && s.cpu.Reg.SP == 0xFF:
		return true
	case inst.Opcode == 0x60 && s.cpu.Reg.SP == 0xFF:
		return true
	default:
		return false
	}
}

func (s *SidPlayer) stepRaster() {
	m := s.mem
	m.StoreByte(0xD012, m.LoadByte(0xD012)+1)

	if m.LoadByte(0xD012) == 0 || (m.LoadByte(0xD011)&0x80 != 0 && m.LoadByte(0xD012) >= 0x38) {
		m.StoreByte(0xD011, m.LoadByte(0xD011)^0x80)
		m.StoreByte(0xD012, 0x00)
	}
}

// playFrame calls the play routine at the start of the frame, then clocks
// the SID to the end of the frame.
func (s *SidPlayer) playFrame() {
	h := &s.tune.Header

	s.cpu.Cycles = s.frameStart
	s.callRoutine(s.playAddress, 0, false)

	if s.mem.LoadByte(0x01)&0x03 != 0 && h.UsesCIATimer(s.currentSong) {
		if timer := uint64(s.mem.ReadWord(0xDC04)); timer != 0 {
			s.framePeriod = timer
		}
	}
	if s.framePeriod == 0 {
		s.framePeriod = 20000
	}

	end := max(s.frameStart+s.framePeriod, s.cpu.Cycles)
	s.advanceTo(end)
	s.frameStart = end

	if s.limit != 0 && s.frameStart >= s.limit {
		s.finish()
	}
}

// advanceTo clocks the SID up to CPU cycle target.
func (s *SidPlayer) advanceTo(target uint64) {
	for s.sidCycle < target {
		step := target - s.sidCycle
		if s.input != nil && s.inputStep > 0 {
			s.sid.Input(s.input.At(float64(s.sidCycle) / s.clockFreq))
			step = min(step, s.inputStep-s.sidCycle%s.inputStep)
		}

		if s.initializing {
			s.sid.Clock(resid.CycleCount(step))
		} else {
			s.clockSamples(resid.CycleCount(step))
		}
		s.sidCycle += step
	}
}

func (s *SidPlayer) clockSamples(delta resid.CycleCount) {
	for delta > 0 {
		if len(s.pending) == cap(s.pending) {
			s.pending = slices.Grow(s.pending, 1024)
		}
		free := s.pending[len(s.pending):cap(s.pending)]
		n := s.sid.ClockSamples(&delta, free, 1)
		s.pending = s.pending[:len(s.pending)+n]
	}
}

// Render fills buf with samples, running the play routine as often as
// needed. It returns fewer than len(buf) samples only once playback ended.
func (s *SidPlayer) Render(buf []int16) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for n < len(buf) {
		if s.pendingPos < len(s.pending) {
			c := copy(buf[n:], s.pending[s.pendingPos:])
			n += c
			s.pendingPos += c
			continue
		}

		s.pending = s.pending[:0]
		s.pendingPos = 0
		if !s.isPlaying {
			break
		}
		s.playFrame()
	}
	return n
}

// ReadIO handles CPU reads of the SID, which see the chip at the current
// cycle.
func (s *SidPlayer) ReadIO(addr uint16) byte {
	s.advanceTo(s.cpu.Cycles)
	return s.sid.Read(uint8(addr & 0x1f))
}

// WriteIO handles CPU writes to the SID.
func (s *SidPlayer) WriteIO(addr uint16, v byte) {
	s.advanceTo(s.cpu.Cycles)
	s.sid.Write(uint8(addr&0x1f), v)
}
