package resid

// Potentiometer is a paddle input read through POTX or POTY. The value comes
// from the host; the SID only latches it.
type Potentiometer struct {
	value reg8
}

func (p *Potentiometer) Set(value uint8) {
	p.value = reg8(value)
}

func (p *Potentiometer) ReadPot() reg8 {
	return p.value
}
