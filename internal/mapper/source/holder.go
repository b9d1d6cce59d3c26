// Package source implements the telemetry sources read by the mapper.
package source

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
)

var _ core.Source = (*Holder)(nil)

// Holder keeps the latest sample of a source. It is safe for concurrent use
// by one or more writers and the mapper.
type Holder struct {
	clock  clock.PassiveClock
	maxAge time.Duration

	mu       sync.RWMutex
	sample   core.Sample
	received time.Time
	updates  uint64
}

// NewHolder returns an empty holder. Samples older than maxAge make the
// holder not ready; a zero maxAge never expires them.
func NewHolder(maxAge time.Duration, clk clock.PassiveClock) *Holder {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Holder{clock: clk, maxAge: maxAge}
}

// Update stores a copy of s as the latest sample.
func (h *Holder) Update(s core.Sample) {
	c := s.Clone()
	now := h.clock.Now()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sample = c
	h.received = now
	h.updates++
}

// Ready reports whether a sample arrived and is still fresh.
func (h *Holder) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.received.IsZero() {
		return false
	}
	return h.maxAge <= 0 || h.clock.Since(h.received) <= h.maxAge
}

// Latest returns a copy of the latest sample, nil before the first update.
func (h *Holder) Latest() core.Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sample.Clone()
}

// Updates returns how many samples were stored.
func (h *Holder) Updates() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.updates
}

var errNotObject = errors.New("sample is not a JSON object")

// decodeSample parses one JSON object.
func decodeSample(b []byte) (core.Sample, error) {
	var s core.Sample
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errNotObject
	}
	return s, nil
}
