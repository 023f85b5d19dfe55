package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

// SDL plays through an SDL audio device. Samples are queued from a pump
// goroutine, so no audio callback crosses into Go.
type SDL struct {
	src     Source
	dev     sdl.AudioDeviceID
	samples []int16
	bytes   []byte

	// Bytes kept queued on the device.
	queueTarget uint32

	started bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewSDL opens the default audio device at sampleRate.
func NewSDL(sampleRate int, src Source) (*SDL, error) {
	if err := sdl.Init(sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}

	spec := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: 1,
		Samples:  2048,
	}

	dev, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl open audio: %w", err)
	}

	return &SDL{
		src:         src,
		dev:         dev,
		samples:     make([]int16, 1024),
		bytes:       make([]byte, 2048),
		queueTarget: uint32(sampleRate / 10 * 2),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Play starts the device and the pump.
func (s *SDL) Play() error {
	sdl.PauseAudioDevice(s.dev, false)

	s.started = true
	go func() {
		defer close(s.done)

		for {
			select {
			case <-s.stop:
				return
			default:
			}

			if sdl.GetQueuedAudioSize(s.dev) >= s.queueTarget {
				time.Sleep(5 * time.Millisecond)
				continue
			}

			n := s.src.Render(s.samples)
			if n == 0 {
				return
			}
			putSamples(s.bytes, s.samples[:n])
			if err := sdl.QueueAudio(s.dev, s.bytes[:n*2]); err != nil {
				return
			}
		}
	}()

	return nil
}

func (s *SDL) Close() error {
	s.once.Do(func() {
		close(s.stop)
	})
	if s.started {
		<-s.done
	}

	sdl.CloseAudioDevice(s.dev)
	sdl.Quit()
	return nil
}
