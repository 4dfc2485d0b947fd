// ABOUTME: Fixed-length playback window drained one sample per carrier period
// ABOUTME: The cursor never passes the filled length; exhaustion triggers a refill
package audio

// Window is the consumer's view of the current chunk of samples.
type Window struct {
	buf    []byte
	length int
	cursor int
}

// NewWindow creates an empty window holding up to size samples
func NewWindow(size int) *Window {
	if size < 1 {
		size = DefaultWindowSize
	}
	return &Window{buf: make([]byte, size)}
}

// Buffer exposes the backing array for refilling. Call Fill afterwards.
func (w *Window) Buffer() []byte {
	return w.buf
}

// Fill marks the first n bytes of Buffer valid and rewinds the cursor
func (w *Window) Fill(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(w.buf) {
		n = len(w.buf)
	}
	w.length = n
	w.cursor = 0
}

// Next returns the sample under the cursor and advances it.
// It must not be called on an exhausted window.
func (w *Window) Next() Sample {
	s := w.buf[w.cursor]
	w.cursor++
	return s
}

// Exhausted reports whether every filled sample has been consumed
func (w *Window) Exhausted() bool {
	return w.cursor >= w.length
}

// Cursor returns the index of the next sample
func (w *Window) Cursor() int {
	return w.cursor
}

// Len returns the number of valid samples
func (w *Window) Len() int {
	return w.length
}

// Cap returns the window capacity
func (w *Window) Cap() int {
	return len(w.buf)
}
