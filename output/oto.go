package output

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto plays through oto. oto pulls samples from its own goroutine.
type Oto struct {
	ctx    *oto.Context
	player *oto.Player
}

// NewOto creates the oto context at sampleRate and waits until it is ready.
// oto allows one context per process.
func NewOto(sampleRate int, src Source) (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}
	<-ready

	return &Oto{
		ctx:    ctx,
		player: ctx.NewPlayer(&sourceReader{src: src}),
	}, nil
}

func (o *Oto) Play() error {
	o.player.Play()
	return nil
}

func (o *Oto) Close() error {
	return o.player.Close()
}

// sourceReader adapts a Source to the byte stream oto reads.
type sourceReader struct {
	src     Source
	samples []int16
}

func (r *sourceReader) Read(p []byte) (int, error) {
	n := len(p) / 2
	if n == 0 {
		return 0, nil
	}
	if cap(r.samples) < n {
		r.samples = make([]int16, n)
	}

	got := r.src.Render(r.samples[:n])
	if got == 0 {
		return 0, io.EOF
	}
	putSamples(p, r.samples[:got])
	return got * 2, nil
}
