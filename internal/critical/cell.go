// ABOUTME: Once-populated shared cell for peripherals handed to interrupt handlers
// ABOUTME: All access after hand-off goes through a critical section
package critical

import (
	"log"
)

// Cell owns a value that is shared between a foreground loop and an interrupt
// handler. It is populated once, before the handler's interrupt line is
// unmasked, and borrowed only inside With afterwards.
type Cell[T any] struct {
	name  string
	value T
	set   bool
}

// NewCell creates an empty cell. name is used in log and panic messages.
func NewCell[T any](name string) *Cell[T] {
	return &Cell[T]{name: name}
}

// Name returns the cell's name
func (c *Cell[T]) Name() string {
	return c.name
}

// Set hands v over to the cell. A second call is logged and discarded so the
// already-installed value keeps working; the caller decides whether that is fatal.
func (c *Cell[T]) Set(v T) error {
	var err error
	With(func(cs Section) {
		if c.set {
			log.Printf("Shared %s cell failed to set!", c.name)
			err = ErrAlreadySet
			return
		}
		c.value = v
		c.set = true
	})
	return err
}

// IsSet reports whether the cell has been populated
func (c *Cell[T]) IsSet() bool {
	var set bool
	With(func(cs Section) {
		set = c.set
	})
	return set
}

// Borrow returns the cell's value for the lifetime of cs. Borrowing an empty
// cell, or with a token from a section that has ended, is a programming error.
func (c *Cell[T]) Borrow(cs Section) *T {
	if !cs.valid() {
		panic("critical: " + c.name + " borrowed outside its critical section")
	}
	if !c.set {
		panic("critical: " + c.name + " accessed before hand-off")
	}
	return &c.value
}

// Access runs fn on the cell's value inside a critical section.
func (c *Cell[T]) Access(fn func(v *T)) {
	With(func(cs Section) {
		fn(c.Borrow(cs))
	})
}
