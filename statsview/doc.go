// Package statsview serves live runtime graphs (heap, goroutines, GC) over
// HTTP while a tune plays. The server is compiled in only with the
// statsview build tag; otherwise Available reports false and Launch and
// Stop do nothing.
package statsview
