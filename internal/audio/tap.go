package audio

import "sync"

// Tap records the last N mono capture samples into a ring buffer so the
// analyzer can pull a window of recent audio at frame rate.
type Tap struct {
	buffer    []float64
	nextIndex int
	filled    int
	mu        sync.RWMutex
}

func NewTap(ringSize int) *Tap {
	return &Tap{buffer: make([]float64, ringSize)}
}

// WriteMono appends samples delivered by a device callback.
func (t *Tap) WriteMono(samples []float32) {
	t.mu.Lock()
	for _, s := range samples {
		t.push(float64(s))
	}
	t.mu.Unlock()
}

// WriteStereo downmixes and appends stereo frames.
func (t *Tap) WriteStereo(samples [][2]float64) {
	t.mu.Lock()
	for _, s := range samples {
		t.push((s[0] + s[1]) * 0.5)
	}
	t.mu.Unlock()
}

func (t *Tap) push(v float64) {
	t.buffer[t.nextIndex] = v
	t.nextIndex++
	if t.nextIndex >= len(t.buffer) {
		t.nextIndex = 0
	}
	if t.filled < len(t.buffer) {
		t.filled++
	}
}

// Snapshot fills dst with the most recent len(dst) samples in chronological
// order. Missing history is left as leading zeros. It returns the number of
// recorded samples copied.
func (t *Tap) Snapshot(dst []float64) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(dst)
	if n > t.filled {
		n = t.filled
	}
	pad := len(dst) - n
	for i := 0; i < pad; i++ {
		dst[i] = 0
	}
	idx := t.nextIndex - n
	if idx < 0 {
		idx += len(t.buffer)
	}
	for i := pad; i < len(dst); i++ {
		dst[i] = t.buffer[idx]
		idx++
		if idx >= len(t.buffer) {
			idx = 0
		}
	}
	return n
}

// Reset drops all recorded history.
func (t *Tap) Reset() {
	t.mu.Lock()
	for i := range t.buffer {
		t.buffer[i] = 0
	}
	t.nextIndex = 0
	t.filled = 0
	t.mu.Unlock()
}
