// ABOUTME: Pair of FIFOs, one per direction, as seen from each core
// ABOUTME: Each core writes to its tx FIFO and reads from its rx FIFO
package fifo

import "context"

// Port is one core's end of the inter-core link
type Port struct {
	tx *FIFO
	rx *FIFO
}

// NewLink creates both directions and returns the view of each core
func NewLink(depth int) (core0, core1 Port) {
	toCore1 := New(depth)
	toCore0 := New(depth)

	core0 = Port{tx: toCore1, rx: toCore0}
	core1 = Port{tx: toCore0, rx: toCore1}
	return core0, core1
}

func (p Port) Write(w Word)          { p.tx.Write(w) }
func (p Port) Read() Word            { return p.rx.Read() }
func (p Port) TryWrite(w Word) bool  { return p.tx.TryWrite(w) }
func (p Port) TryRead() (Word, bool) { return p.rx.TryRead() }
func (p Port) TX() *FIFO             { return p.tx }
func (p Port) RX() *FIFO             { return p.rx }

func (p Port) WriteContext(ctx context.Context, w Word) error {
	return p.tx.WriteContext(ctx, w)
}

func (p Port) ReadContext(ctx context.Context) (Word, error) {
	return p.rx.ReadContext(ctx)
}
