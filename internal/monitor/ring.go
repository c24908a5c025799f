package monitor

import "time"

type sample struct {
	durationMS float64
	at         time.Time
}

// ring is a fixed-capacity FIFO buffer. Once full, each push overwrites the
// oldest sample.
type ring struct {
	buf   []sample
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]sample, capacity)}
}

func (r *ring) push(s sample) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = s
		r.size++
		return
	}
	r.buf[r.start] = s
	r.start = (r.start + 1) % len(r.buf)
}

// durations returns the retained samples' durations, oldest first.
func (r *ring) durations() []float64 {
	out := make([]float64, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)].durationMS
	}
	return out
}

func (r *ring) last() (sample, bool) {
	if r.size == 0 {
		return sample{}, false
	}
	return r.buf[(r.start+r.size-1)%len(r.buf)], true
}
