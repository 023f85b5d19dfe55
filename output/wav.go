package output

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavChunk = 4096

// WriteWAV renders up to total samples from src into a 16 bit mono PCM WAV
// file on w. It returns the number of samples written, which is less than
// total only if src ended.
func WriteWAV(w io.WriteSeeker, sampleRate int, src Source, total int) (int, error) {
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)

	samples := make([]int16, wavChunk)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, wavChunk),
		SourceBitDepth: 16,
	}

	written := 0
	for written < total {
		n := min(wavChunk, total-written)
		n = src.Render(samples[:n])
		if n == 0 {
			break
		}

		buf.Data = buf.Data[:n]
		for i, s := range samples[:n] {
			buf.Data[i] = int(s)
		}
		if err := enc.Write(buf); err != nil {
			return written, fmt.Errorf("wav: %w", err)
		}
		written += n
	}

	if err := enc.Close(); err != nil {
		return written, fmt.Errorf("wav: %w", err)
	}
	return written, nil
}
