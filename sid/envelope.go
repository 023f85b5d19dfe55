package resid

// EnvelopeState is the phase of the ADSR state machine. There is no idle
// phase; Release with a zero envelope counter serves that purpose.
type EnvelopeState int

const (
	Attack EnvelopeState = iota
	DecaySustain
	Release
)

func (s EnvelopeState) String() string {
	switch s {
	case Attack:
		return "attack"
	case DecaySustain:
		return "decay/sustain"
	default:
		return "release"
	}
}

// EnvelopeGenerator is the 8-bit ADSR amplitude generator of one voice.
type EnvelopeGenerator struct {
	rateCounter              reg16
	ratePeriod               reg16
	exponentialCounter       int
	exponentialCounterPeriod int
	envelopeCounter          int
	holdZero                 bool

	attack  reg4
	decay   reg4
	sustain reg4
	release reg4
	gate    reg8

	state EnvelopeState
}

func NewEnvelopeGenerator() *EnvelopeGenerator {
	e := &EnvelopeGenerator{}
	e.Reset()
	return e
}

func (e *EnvelopeGenerator) Reset() {
	e.envelopeCounter = 0
	e.attack = 0
	e.decay = 0
	e.sustain = 0
	e.release = 0
	e.gate = 0
	e.rateCounter = 0
	e.exponentialCounter = 0
	e.exponentialCounterPeriod = 1
	e.state = Release
	e.ratePeriod = rateCounterPeriod[e.release]
	e.holdZero = true
}

// ClockOne advances the envelope by a single cycle.
func (e *EnvelopeGenerator) ClockOne() {
	// ADSR delay bug: the comparison is for equality only, so a rate period
	// lowered below the counter lets the counter run to 0x8000, where it
	// wraps to 1 (zero is skipped).
	e.rateCounter++
	if e.rateCounter&0x8000 != 0 {
		e.rateCounter = (e.rateCounter + 1) & 0x7fff
	}

	if e.rateCounter != e.ratePeriod {
		return
	}
	e.rateCounter = 0

	// The first envelope step in the attack state also resets the
	// exponential counter.
	if e.state != Attack {
		e.exponentialCounter++
		if e.exponentialCounter != e.exponentialCounterPeriod {
			return
		}
	}
	e.exponentialCounter = 0

	if e.holdZero {
		return
	}
	e.step()
}

// Clock advances the envelope by delta cycles. The end state is identical to
// calling ClockOne delta times.
func (e *EnvelopeGenerator) Clock(delta CycleCount) {
	// Cycles until the next rate counter match. A period below the current
	// counter means a trip through the 15-bit wrap first, and since the
	// wrap skips zero that trip is 0x7fff cycles long.
	rateStep := CycleCount(e.ratePeriod) - CycleCount(e.rateCounter)
	if rateStep <= 0 {
		rateStep += 0x7fff
	}

	for delta > 0 {
		if delta < rateStep {
			e.rateCounter += reg16(delta)
			if e.rateCounter&0x8000 != 0 {
				e.rateCounter = (e.rateCounter + 1) & 0x7fff
			}
			return
		}

		e.rateCounter = 0
		delta -= rateStep

		e.exponentialCounter++
		if e.state == Attack || e.exponentialCounter == e.exponentialCounterPeriod {
			e.exponentialCounter = 0
			if !e.holdZero {
				e.step()
			}
		}

		rateStep = CycleCount(e.ratePeriod)
	}
}

// step moves the envelope counter one position in the current state and
// reloads the exponential counter period.
func (e *EnvelopeGenerator) step() {
	switch e.state {
	case Attack:
		// The counter can flip from 0xff to 0x00 by going release then
		// attack; it is then frozen at zero until the next attack.
		e.envelopeCounter = (e.envelopeCounter + 1) & 0xff
		if e.envelopeCounter == 0xff {
			e.state = DecaySustain
			e.ratePeriod = rateCounterPeriod[e.decay]
		}
	case DecaySustain:
		if e.envelopeCounter != int(sustainLevel[e.sustain]) {
			e.envelopeCounter--
		}
	case Release:
		// Going attack then release can flip the counter from 0x00 to
		// 0xff, after which it keeps counting down.
		e.envelopeCounter = (e.envelopeCounter - 1) & 0xff
	}

	switch e.envelopeCounter {
	case 0xff:
		e.exponentialCounterPeriod = 1
	case 0x5d:
		e.exponentialCounterPeriod = 2
	case 0x36:
		e.exponentialCounterPeriod = 4
	case 0x1a:
		e.exponentialCounterPeriod = 8
	case 0x0e:
		e.exponentialCounterPeriod = 16
	case 0x06:
		e.exponentialCounterPeriod = 30
	case 0x00:
		e.exponentialCounterPeriod = 1
		// Frozen at zero until the next attack.
		e.holdZero = true
	}
}

// Output returns the envelope counter, the multiplicand applied to the
// waveform output.
func (e *EnvelopeGenerator) Output() reg8 {
	return reg8(e.envelopeCounter)
}

// State returns the current ADSR phase.
func (e *EnvelopeGenerator) State() EnvelopeState {
	return e.state
}

// Rate counter periods are calculated from the Envelope Rates table in the
// Programmer's Reference Guide and verified by sampling ENV3. Most values are
// the calculated value rounded down plus one, the extra cycle being the one
// spent zeroing the counter.
//
// The exact periods can be measured by counting the cycles from envelope
// level 1 to level 129 with linked CIA timers and dividing by 128; sampling
// with sustain = release = 0 avoids the ADSR delay bug.
var rateCounterPeriod = [16]reg16{
	9,     //   2ms*1.0MHz/256 =     7.81
	32,    //   8ms*1.0MHz/256 =    31.25
	63,    //  16ms*1.0MHz/256 =    62.50
	95,    //  24ms*1.0MHz/256 =    93.75
	149,   //  38ms*1.0MHz/256 =   148.44
	220,   //  56ms*1.0MHz/256 =   218.75
	267,   //  68ms*1.0MHz/256 =   265.63
	313,   //  80ms*1.0MHz/256 =   312.50
	392,   // 100ms*1.0MHz/256 =   390.63
	977,   // 250ms*1.0MHz/256 =   976.56
	1954,  // 500ms*1.0MHz/256 =  1953.13
	3126,  // 800ms*1.0MHz/256 =  3125.00
	3907,  //   1 s*1.0MHz/256 =  3906.25
	11720, //   3 s*1.0MHz/256 = 11718.75
	19532, //   5 s*1.0MHz/256 = 19531.25
	31251, //   8 s*1.0MHz/256 = 31250.00
}

// For decay and release the clock to the envelope counter is divided by
// 1, 2, 4, 8, 16, 30, 1 to give a piecewise linear approximation of an
// exponential. The period is loaded at counter values 255, 93, 54, 26, 14, 6
// and 0 (see step).
//
// NB! At the first period with an exponential period above one, the real chip
// spends one extra cycle before decrementing. This is not modeled.

// Both nibbles of the envelope counter are compared to the 4-bit sustain
// value.
var sustainLevel = [16]reg8{
	0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
	0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
}

// WriteControlReg handles the gate bit of the voice control register.
func (e *EnvelopeGenerator) WriteControlReg(control reg8) {
	gateNext := control & 0x01

	// The rate counter is never reset, so there is a delay before the
	// envelope starts counting in the new direction.
	if e.gate == 0 && gateNext != 0 {
		e.state = Attack
		e.ratePeriod = rateCounterPeriod[e.attack]

		// Switching to attack unlocks the zero freeze.
		e.holdZero = false
	} else if e.gate != 0 && gateNext == 0 {
		e.state = Release
		e.ratePeriod = rateCounterPeriod[e.release]
	}

	e.gate = gateNext
}

func (e *EnvelopeGenerator) WriteAttackDecay(attackDecay reg8) {
	e.attack = reg4(attackDecay>>4) & 0x0f
	e.decay = reg4(attackDecay & 0x0f)

	switch e.state {
	case Attack:
		e.ratePeriod = rateCounterPeriod[e.attack]
	case DecaySustain:
		e.ratePeriod = rateCounterPeriod[e.decay]
	}
}

func (e *EnvelopeGenerator) WriteSustainRelease(sustainRelease reg8) {
	e.sustain = reg4(sustainRelease>>4) & 0x0f
	e.release = reg4(sustainRelease & 0x0f)

	if e.state == Release {
		e.ratePeriod = rateCounterPeriod[e.release]
	}
}

// ReadENV is the ENV3 read-back value.
func (e *EnvelopeGenerator) ReadENV() reg8 {
	return e.Output()
}
