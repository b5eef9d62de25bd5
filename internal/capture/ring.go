package capture

// levelRing is a fixed-size ring buffer of amplitude samples. The background
// reader pushes one RMS value per captured frame; once full, new samples
// overwrite the oldest. Not safe for concurrent use — the session serialises
// access under its own lock.
type levelRing struct {
	buf  []float64
	n    int // number of valid samples, up to len(buf)
	next int // write position
}

func newLevelRing(size int) *levelRing {
	return &levelRing{buf: make([]float64, size)}
}

func (r *levelRing) push(v float64) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

// snapshot returns the buffered samples oldest-first.
func (r *levelRing) snapshot() []float64 {
	if r.n == 0 {
		return nil
	}
	out := make([]float64, 0, r.n)
	start := r.next - r.n
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.n; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

func (r *levelRing) reset() {
	r.n = 0
	r.next = 0
}
