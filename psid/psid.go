// Package psid reads PSID and RSID tunes: the header describing the tune and
// the C64 program image that plays it.
package psid

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/beevik/go6502/cpu"
)

var (
	ErrShort      = errors.New("psid: file too short")
	ErrMagic      = errors.New("psid: not a PSID or RSID file")
	ErrDataOffset = errors.New("psid: invalid data offset")
	ErrMultiSID   = errors.New("psid: multi-SID tunes are not supported")
	ErrTooLarge   = errors.New("psid: data continues past end of C64 memory")
)

const (
	headerSizeV1 = 0x76
	headerSizeV2 = 0x7c
)

// PSIDHeader is the big endian file header. Version 1 files end at Released;
// the fields after it are zero for them.
type PSIDHeader struct {
	MagicID     [4]byte
	Version     uint16
	DataOffset  uint16
	LoadAddress uint16
	InitAddress uint16
	PlayAddress uint16
	Songs       uint16
	StartSong   uint16
	Speed       uint32
	Name        [32]byte
	Author      [32]byte
	Released    [32]byte

	Flags            uint16
	StartPage        uint8
	PageLength       uint8
	SecondSIDAddress uint8
	ThirdSIDAddress  uint8
}

// Clock and SID model preferences in Flags.
const (
	ClockUnknown = iota
	ClockPAL
	ClockNTSC
	ClockAny
)

const (
	ModelUnknown = iota
	Model6581
	Model8580
	ModelAny
)

// Tune is a parsed file: the header and the program image, without the
// embedded load address if there was one.
type Tune struct {
	Header PSIDHeader
	Data   []byte
}

// LoadFile reads and parses the tune at path.
func LoadFile(path string) (*Tune, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load reads and parses a whole tune from r.
func Load(r io.Reader) (*Tune, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses a tune held in memory.
func Parse(data []byte) (*Tune, error) {
	if len(data) < headerSizeV1 {
		return nil, ErrShort
	}

	magic := string(data[:4])
	if magic != "PSID" && magic != "RSID" {
		return nil, fmt.Errorf("%w: magic %q", ErrMagic, magic)
	}

	// Version 1 headers are shorter; the missing fields read as zero.
	var raw [headerSizeV2]byte
	copy(raw[:], data[:min(len(data), headerSizeV2)])

	dataOffset := int(binary.BigEndian.Uint16(raw[0x06:]))
	if dataOffset < headerSizeV1 || dataOffset > len(data) {
		return nil, fmt.Errorf("%w: 0x%04X", ErrDataOffset, dataOffset)
	}
	if dataOffset < headerSizeV2 {
		clear(raw[dataOffset:])
	}

	t := &Tune{}
	if err := binary.Read(bytes.NewReader(raw[:]), binary.BigEndian, &t.Header); err != nil {
		return nil, err
	}
	h := &t.Header

	if h.SecondSIDAddress != 0 || h.ThirdSIDAddress != 0 {
		return nil, ErrMultiSID
	}

	start := dataOffset
	if h.LoadAddress == 0 {
		if start+2 > len(data) {
			return nil, fmt.Errorf("%w: missing embedded load address", ErrShort)
		}
		h.LoadAddress = binary.LittleEndian.Uint16(data[start:])
		start += 2
	}

	if int(h.LoadAddress)+len(data)-start > 0x10000 {
		return nil, ErrTooLarge
	}

	t.Data = make([]byte, len(data)-start)
	copy(t.Data, data[start:])

	return t, nil
}

// LoadData copies the program image into C64 memory at the load address.
func (t *Tune) LoadData(mem cpu.Memory) {
	mem.StoreBytes(t.Header.LoadAddress, t.Data)
}

// IsRSID reports whether the tune needs a real C64 environment.
func (h *PSIDHeader) IsRSID() bool {
	return string(h.MagicID[:]) == "RSID"
}

// UsesCIATimer reports whether song (0-based) is driven by the CIA 1 timer
// rather than the vertical blank interrupt. Songs past 32 share the last bit.
func (h *PSIDHeader) UsesCIATimer(song int) bool {
	if song > 31 {
		song = 31
	}
	return h.Speed&(1<<uint(song)) != 0
}

// Clock returns the video standard the tune was written for.
func (h *PSIDHeader) Clock() int {
	return int(h.Flags>>2) & 0x3
}

// SIDModel returns the SID model the tune was written for.
func (h *PSIDHeader) SIDModel() int {
	return int(h.Flags>>4) & 0x3
}

func (h *PSIDHeader) NameString() string     { return cstring(h.Name[:]) }
func (h *PSIDHeader) AuthorString() string   { return cstring(h.Author[:]) }
func (h *PSIDHeader) ReleasedString() string { return cstring(h.Released[:]) }

// PrintHeader writes the header fields, one per line.
func (h *PSIDHeader) PrintHeader(w io.Writer) {
	fmt.Fprintf(w, "MagicID:     %s\n", h.MagicID[:])
	fmt.Fprintf(w, "Version:     %d\n", h.Version)
	fmt.Fprintf(w, "DataOffset:  0x%X\n", h.DataOffset)
	fmt.Fprintf(w, "LoadAddress: 0x%04X\n", h.LoadAddress)
	fmt.Fprintf(w, "InitAddress: 0x%04X\n", h.InitAddress)
	fmt.Fprintf(w, "PlayAddress: 0x%04X\n", h.PlayAddress)
	fmt.Fprintf(w, "Songs:       %d\n", h.Songs)
	fmt.Fprintf(w, "StartSong:   %d\n", h.StartSong)
	fmt.Fprintf(w, "Speed:       0x%X\n", h.Speed)
	fmt.Fprintf(w, "Name:        %s\n", h.NameString())
	fmt.Fprintf(w, "Author:      %s\n", h.AuthorString())
	fmt.Fprintf(w, "Copyright:   %s\n", h.ReleasedString())
	if h.Version >= 2 {
		fmt.Fprintf(w, "Flags:       0x%04X\n", h.Flags)
	}
}

// cstring returns the text of a zero padded field.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
