// Package output moves rendered SID samples to a sound device or a file.
// All outputs are 16 bit signed mono.
package output

import "encoding/binary"

// Source renders mono samples on demand. Render fills buf completely unless
// the source has ended, and returns the number of samples written.
type Source interface {
	Render(buf []int16) int
}

// Player is a live sound device fed from a Source.
type Player interface {
	Play() error
	Close() error
}

// putSamples writes samples as little endian 16 bit into b, which must hold
// 2*len(samples) bytes.
func putSamples(b []byte, samples []int16) {
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
}
