package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// tuneControls is what the keyboard drives.
type tuneControls interface {
	NextTune()
	PrevTune()
	ToggleMute(voice int) bool
}

// handleKey applies one key press and reports whether it asks to quit.
func handleKey(b byte, c tuneControls) bool {
	switch b {
	case 'n', 'N', '+':
		c.NextTune()
	case 'p', 'P', '-':
		c.PrevTune()
	case '1', '2', '3':
		v := int(b - '1')
		if c.ToggleMute(v) {
			fmt.Printf("voice %d muted\r\n", v+1)
		} else {
			fmt.Printf("voice %d on\r\n", v+1)
		}
	case 'q', 'Q', 0x03, 0x1b:
		return true
	}
	return false
}

// KeyReader reads single key presses from a terminal in raw mode.
type KeyReader struct {
	fd       int
	oldState *term.State
	quit     chan struct{}
}

// StartKeys puts stdin into raw mode and dispatches keys to c until a quit
// key is pressed. It returns nil if stdin is not a terminal.
func StartKeys(c tuneControls) (*KeyReader, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}

	k := &KeyReader{
		fd:       fd,
		oldState: oldState,
		quit:     make(chan struct{}),
	}

	go func() {
		defer close(k.quit)
		buf := make([]byte, 1)

		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n > 0 && handleKey(buf[0], c) {
				return
			}
		}
	}()

	return k, nil
}

// Quit is closed when a quit key was pressed or stdin ended.
func (k *KeyReader) Quit() <-chan struct{} {
	return k.quit
}

// Restore puts the terminal back into the mode it had before StartKeys.
func (k *KeyReader) Restore() {
	if k.oldState != nil {
		_ = term.Restore(k.fd, k.oldState)
		k.oldState = nil
	}
}
