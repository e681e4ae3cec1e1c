// Package inmem keeps every repository in process memory. It backs the
// "memory" store driver and the tests.
package inmem

import (
	"fmt"
	"sync/atomic"
)

var seq atomic.Int64

// newID returns a process-unique identifier with a readable prefix.
func newID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, seq.Add(1))
}
