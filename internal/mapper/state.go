package mapper

import (
	"time"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
)

// MaxScanBuffer bounds the number of buffered scan records.
const MaxScanBuffer = 1024

// State is owned by the aggregation loop and only mutated from it.
// Invariant: ScanLastSentIndex <= ScanIndex <= len(ScanResults).
type State struct {
	Running bool

	PositionLat float64
	PositionLon float64
	PositionAlt float64

	CorrectionLat float64
	CorrectionLon float64

	OdomX float64
	OdomY float64

	PositionAvailable   bool
	CorrectionAvailable bool

	ScanResults       []core.Scan
	ScanIndex         uint64
	ScanLastSentIndex uint64

	PayloadIndex uint64

	// positionSeq is the Updates count of the last consumed positioning sample.
	positionSeq uint64
}

// appendScans buffers records and advances ScanIndex past them. Once the
// buffer exceeds MaxScanBuffer the sent prefix is dropped, then the oldest
// unsent records if that is not enough. It returns how many unsent records
// were dropped.
func (s *State) appendScans(scans ...core.Scan) int {
	if len(scans) == 0 {
		return 0
	}
	s.ScanResults = append(s.ScanResults, scans...)
	s.ScanIndex = uint64(len(s.ScanResults))

	if len(s.ScanResults) <= MaxScanBuffer {
		return 0
	}

	s.compact(s.ScanLastSentIndex)

	dropped := 0
	if over := len(s.ScanResults) - MaxScanBuffer; over > 0 {
		dropped = over
		s.ScanLastSentIndex = uint64(over)
		s.compact(s.ScanLastSentIndex)
	}
	return dropped
}

// drainScans returns the records in [ScanLastSentIndex, ScanIndex) and marks
// them sent.
func (s *State) drainScans() []core.Scan {
	if s.ScanLastSentIndex >= s.ScanIndex {
		return nil
	}
	out := make([]core.Scan, s.ScanIndex-s.ScanLastSentIndex)
	copy(out, s.ScanResults[s.ScanLastSentIndex:s.ScanIndex])
	s.ScanLastSentIndex = s.ScanIndex
	return out
}

// compact removes the first n records and rebases both cursors.
func (s *State) compact(n uint64) {
	if n == 0 {
		return
	}
	s.ScanResults = append(s.ScanResults[:0:0], s.ScanResults[n:]...)
	s.ScanIndex -= n
	s.ScanLastSentIndex -= n
}

// Status is a read-only snapshot of the mapper, published after every tick.
type Status struct {
	Name      string `json:"name"`
	MachineID string `json:"machineId"`
	Phase     string `json:"phase"`
	Running   bool   `json:"running"`

	PositionLat float64 `json:"positionLat"`
	PositionLon float64 `json:"positionLon"`
	PositionAlt float64 `json:"positionAlt"`

	CorrectionLat float64 `json:"correctionLat"`
	CorrectionLon float64 `json:"correctionLon"`

	OdomX float64 `json:"odomX"`
	OdomY float64 `json:"odomY"`

	PositionAvailable   bool `json:"positionAvailable"`
	CorrectionAvailable bool `json:"correctionAvailable"`

	PayloadIndex      uint64 `json:"payloadIndex"`
	ScanIndex         uint64 `json:"scanIndex"`
	ScanLastSentIndex uint64 `json:"scanLastSentIndex"`

	Ticks        uint64    `json:"ticks"`
	Failures     uint64    `json:"failures"`
	LastError    string    `json:"lastError,omitempty"`
	LastSubmitAt time.Time `json:"lastSubmitAt"`
}
