// ABOUTME: Process-wide critical section shared by both cores and their interrupt handlers
// ABOUTME: Provides the Section token and a once-populated Cell guarded by it
package critical

import (
	"sync"
)

var (
	// section stands in for "interrupts disabled on both cores". There is exactly one,
	// so a foreground loop and any handler touching a Cell are mutually exclusive.
	section sync.Mutex
	epoch   uint64
)

// Section proves the holder is inside With. It is only valid for the duration
// of the callback it was passed to.
type Section struct {
	epoch uint64
}

// With runs fn with the critical section held and releases it on return,
// including when fn panics.
func With(fn func(cs Section)) {
	section.Lock()
	defer section.Unlock()

	epoch++
	fn(Section{epoch: epoch})
}

// valid reports whether cs belongs to the section currently held.
// Must be called with section held.
func (cs Section) valid() bool {
	return cs.epoch != 0 && cs.epoch == epoch
}
