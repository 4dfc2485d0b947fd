// ABOUTME: Tests for the critical section and shared cell
// ABOUTME: Covers one-time hand-off, borrow rules and mutual exclusion
package critical

import (
	"errors"
	"sync"
	"testing"
)

func TestCellSetOnce(t *testing.T) {
	cell := NewCell[int]("counter")

	if cell.IsSet() {
		t.Fatal("expected new cell to be empty")
	}

	if err := cell.Set(7); err != nil {
		t.Fatalf("first set failed: %v", err)
	}

	err := cell.Set(9)
	if !errors.Is(err, ErrAlreadySet) {
		t.Errorf("expected ErrAlreadySet, got %v", err)
	}

	// Second value is discarded, first one survives
	var got int
	cell.Access(func(v *int) { got = *v })
	if got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}

func TestCellAccessBeforeSetPanics(t *testing.T) {
	cell := NewCell[int]("empty")

	defer func() {
		if recover() == nil {
			t.Error("expected panic when accessing an empty cell")
		}
	}()

	cell.Access(func(v *int) {})
}

func TestCellBorrowOutsideSectionPanics(t *testing.T) {
	cell := NewCell[int]("leaked")
	if err := cell.Set(1); err != nil {
		t.Fatal(err)
	}

	var stale Section
	With(func(cs Section) { stale = cs })

	defer func() {
		if recover() == nil {
			t.Error("expected panic for stale section token")
		}
	}()

	With(func(cs Section) {
		cell.Borrow(stale)
	})
}

func TestZeroSectionRejected(t *testing.T) {
	cell := NewCell[int]("zero")
	if err := cell.Set(1); err != nil {
		t.Fatal(err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero section token")
		}
	}()

	With(func(cs Section) {
		cell.Borrow(Section{})
	})
}

func TestWithReleasesOnPanic(t *testing.T) {
	func() {
		defer func() { _ = recover() }()
		With(func(cs Section) { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		With(func(cs Section) {})
		close(done)
	}()
	<-done
}

func TestCellMutualExclusion(t *testing.T) {
	cell := NewCell[int]("shared")
	if err := cell.Set(0); err != nil {
		t.Fatal(err)
	}

	// Foreground and "handler" goroutines both increment without atomics
	const perSide = 1000
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perSide {
				cell.Access(func(v *int) { *v++ })
			}
		}()
	}
	wg.Wait()

	var got int
	cell.Access(func(v *int) { got = *v })
	if got != 2*perSide {
		t.Errorf("expected %d, got %d", 2*perSide, got)
	}
}
