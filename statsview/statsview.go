//go:build statsview

package statsview

import (
	"fmt"
	"io"
	"sync"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Addr is where the server listens.
const Addr = "localhost:12600"

var (
	mu  sync.Mutex
	mgr *statsview.ViewManager
)

// Launch starts the server on its own goroutine and prints its URL to w.
// Launching twice has no further effect.
func Launch(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if mgr != nil {
		return
	}
	viewer.SetConfiguration(viewer.WithAddr(Addr))
	mgr = statsview.New()
	go mgr.Start()

	fmt.Fprintf(w, "runtime stats at http://%s/debug/statsview\n", Addr)
}

// Stop shuts the server down.
func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if mgr != nil {
		mgr.Stop()
		mgr = nil
	}
}

func Available() bool {
	return true
}
