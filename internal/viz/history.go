package viz

import "math"

// History is a bounded series of total energy samples.
type History struct {
	capacity int
	samples  []float64
}

func NewHistory(capacity int) *History {
	return &History{capacity: capacity, samples: make([]float64, 0, capacity)}
}

func (h *History) Push(v float64) {
	if len(h.samples) >= h.capacity {
		h.samples = h.samples[1:]
	}
	h.samples = append(h.samples, v)
}

func (h *History) Reset() { h.samples = h.samples[:0] }

func (h *History) Len() int { return len(h.samples) }

// Drift returns each sample relative to the first, in parts per million.
func (h *History) Drift() []float64 {
	if len(h.samples) == 0 || h.samples[0] == 0 {
		return nil
	}
	ref := math.Abs(h.samples[0])
	drift := make([]float64, len(h.samples))
	for i, e := range h.samples {
		drift[i] = (e - h.samples[0]) / ref * 1e6
	}
	return drift
}
