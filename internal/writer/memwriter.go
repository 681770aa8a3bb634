package writer

import "sync"

// MemWriter captures snapshot bytes in memory.
type MemWriter struct {
	mu     sync.Mutex
	buf    []byte
	writes int
}

// WriteSnapshot replaces the captured buffer with a copy of buf.
func (w *MemWriter) WriteSnapshot(buf []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf[:0], buf...)
	w.writes++
	return nil
}

// Bytes returns a copy of the last snapshot written.
func (w *MemWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf...)
}

// Writes reports how many snapshots were written.
func (w *MemWriter) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
