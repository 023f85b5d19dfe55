package main

// IODevice receives the CPU accesses that fall into the SID register area
// while the I/O area is banked in.
type IODevice interface {
	ReadIO(addr uint16) byte
	WriteIO(addr uint16, v byte)
}

const (
	sidBase = 0xD400
	sidEnd  = 0xD7FF
)

// C64Memory is the 64K address space seen by the 6510: RAM everywhere, with
// the SID and its mirrors at $D400-$D7FF routed to an IODevice when the
// processor port at $01 maps I/O in. There are no ROMs.
type C64Memory struct {
	b  [64 * 1024]byte
	io IODevice
}

func NewC64Memory() *C64Memory {
	return &C64Memory{}
}

// AttachIO sets the device that handles SID accesses.
func (m *C64Memory) AttachIO(dev IODevice) {
	m.io = dev
}

// Clear zeroes all of RAM.
func (m *C64Memory) Clear() {
	clear(m.b[:])
}

// ioVisible follows the PLA: I/O is mapped unless LORAM and HIRAM are both
// low or CHAREN is low.
func (m *C64Memory) ioVisible() bool {
	port := m.b[0x01]
	return port&0x03 != 0 && port&0x04 != 0
}

func (m *C64Memory) isSID(addr uint16) bool {
	return addr >= sidBase && addr <= sidEnd && m.io != nil && m.ioVisible()
}

// LoadByte loads a single byte from the address and returns it.
func (m *C64Memory) LoadByte(addr uint16) byte {
	if m.isSID(addr) {
		return m.io.ReadIO(addr)
	}
	return m.b[addr]
}

// LoadBytes loads multiple bytes from the address and returns them. It reads
// RAM only; it is used for instruction operands.
func (m *C64Memory) LoadBytes(addr uint16, b []byte) {
	n := copy(b, m.b[addr:])
	clear(b[n:])
}

// LoadAddress loads a 16-bit address value from the requested address and
// returns it.
//
// When the address spans 2 pages (i.e., address ends in 0xff), the high
// byte comes from the start of the same page, as on the NMOS 6502.
func (m *C64Memory) LoadAddress(addr uint16) uint16 {
	if (addr & 0xff) == 0xff {
		return uint16(m.b[addr]) | uint16(m.b[addr-0xff])<<8
	}
	return uint16(m.b[addr]) | uint16(m.b[addr+1])<<8
}

// StoreByte stores a byte at the requested address. SID writes do not reach
// the RAM underneath.
func (m *C64Memory) StoreByte(addr uint16, v byte) {
	if m.isSID(addr) {
		m.io.WriteIO(addr, v)
		return
	}
	m.b[addr] = v
}

// StoreBytes copies b into RAM at addr, truncated at the top of memory.
func (m *C64Memory) StoreBytes(addr uint16, b []byte) {
	copy(m.b[addr:], b)
}

// StoreAddress stores a 16-bit address value to the requested address.
func (m *C64Memory) StoreAddress(addr uint16, v uint16) {
	m.b[addr] = byte(v & 0xff)
	if (addr & 0xff) == 0xff {
		m.b[addr-0xff] = byte(v >> 8)
	} else {
		m.b[addr+1] = byte(v >> 8)
	}
}

// ReadWord reads a little endian word from RAM.
func (m *C64Memory) ReadWord(addr uint16) uint16 {
	return uint16(m.b[addr]) | uint16(m.b[addr+1])<<8
}
