//go:build !statsview

package statsview

import "io"

// Launch does nothing without the statsview build tag.
func Launch(io.Writer) {}

func Stop() {}

func Available() bool {
	return false
}
