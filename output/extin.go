package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

// ErrInputFormat is returned for input files that are neither WAV nor MP3.
var ErrInputFormat = errors.New("input: unsupported file type")

// Input is a recording mixed into the SID audio input. It is mono, taken
// from the first channel of the source file.
type Input struct {
	Samples    []int16
	SampleRate int
}

// LoadInput decodes the WAV or MP3 file at path.
func LoadInput(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var in *Input
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		in, err = DecodeWAV(f)
	case ".mp3":
		in, err = DecodeMP3(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInputFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// DecodeWAV decodes a PCM WAV stream, scaling samples to 16 bits.
func DecodeWAV(r io.ReadSeeker) (*Input, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wav: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	chans := int(dec.NumChans)
	if chans < 1 {
		return nil, fmt.Errorf("wav: no channels")
	}
	depth := int(dec.BitDepth)

	in := &Input{
		Samples:    make([]int16, 0, len(buf.Data)/chans),
		SampleRate: int(dec.SampleRate),
	}
	for i := 0; i < len(buf.Data); i += chans {
		v := buf.Data[i]
		switch {
		case depth == 8:
			// 8 bit WAV is unsigned.
			v = (v - 128) << 8
		case depth > 16:
			v >>= depth - 16
		case depth < 16:
			v <<= 16 - depth
		}
		in.Samples = append(in.Samples, int16(v))
	}

	return in, nil
}

// DecodeMP3 decodes an MP3 stream, keeping the left channel.
func DecodeMP3(r io.Reader) (*Input, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	in := &Input{SampleRate: dec.SampleRate()}

	// The stream is always 16 bit little endian stereo.
	chunk := make([]byte, 4096)
	for {
		n, err := io.ReadFull(dec, chunk)
		for i := 0; i+1 < n; i += 4 {
			in.Samples = append(in.Samples, int16(uint16(chunk[i])|uint16(chunk[i+1])<<8))
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mp3: %w", err)
		}
	}

	return in, nil
}

// At returns the sample playing t seconds into the recording. The recording
// loops.
func (in *Input) At(t float64) int {
	if len(in.Samples) == 0 || in.SampleRate <= 0 || t < 0 {
		return 0
	}
	i := int(t*float64(in.SampleRate)) % len(in.Samples)
	return int(in.Samples[i])
}
