package main

// might be useful to look at binary dumps in the terminal:
// od -h sidtune.sid | less

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"yaspg/sidplay/output"
	"yaspg/sidplay/statsview"

	"github.com/pkg/profile"
)

// Play time used for WAV rendering when -t is not given.
const defaultRenderSeconds = 60

var (
	opt    *SidPlayerSettings
	player *SidPlayer
)

func check(err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

func main() {
	opt = NewSidPlayerSettings()

	// Parse arguments
	opt.ParseArgs()

	if opt.Usage {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if len(flag.Args()) == 0 {
		fmt.Println("Usage: sidplay [options] <sidfile>")
		os.Exit(1)
	}

	switch opt.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		log.Fatalf("unknown profile %q", opt.Profile)
	}

	if opt.Stats {
		if statsview.Available() {
			statsview.Launch(os.Stdout)
			defer statsview.Stop()
		} else {
			logger.Println("warning: built without statsview support")
		}
	}

	// get file name of sid tune
	sidName := flag.Arg(0)

	player = NewSidPlayer(opt)
	check(player.Load(sidName))
	player.Header().PrintHeader(os.Stdout)

	check(player.Init())
	check(player.Start())

	if opt.Output != "" {
		renderWAV(opt.Output)
		return
	}

	play()
}

// renderWAV writes the tune to path as fast as it renders.
func renderWAV(path string) {
	seconds := opt.Seconds
	if seconds <= 0 {
		seconds = defaultRenderSeconds
	}

	f, err := os.Create(path)
	check(err)
	defer f.Close()

	start := time.Now()
	n, err := output.WriteWAV(f, opt.SampleRate, player, seconds*opt.SampleRate)
	check(err)
	fmt.Printf("Wrote %d samples to %s in %v\n", n, path, time.Since(start).Round(time.Millisecond))
}

// play runs the tune on the sound device until it ends, a quit key is
// pressed or the process is interrupted.
func play() {
	var dev output.Player
	var err error

	switch opt.Backend {
	case "sdl":
		dev, err = output.NewSDL(opt.SampleRate, player)
	case "oto":
		dev, err = output.NewOto(opt.SampleRate, player)
	default:
		err = fmt.Errorf("unknown backend %q", opt.Backend)
	}
	check(err)
	defer dev.Close()

	check(dev.Play())

	var quit <-chan struct{}
	keys, err := StartKeys(player)
	if err != nil {
		logger.Println(err)
	}
	if keys != nil {
		defer keys.Restore()
		quit = keys.Quit()
		fmt.Print("n: next subtune, p: previous, 1-3: toggle voice, q: quit\r\n")
	} else {
		fmt.Println("Press Ctrl-C to stop")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-player.Done():
	case <-quit:
	case <-interrupt:
	}

	player.Stop()
}
