package core

import (
	"errors"
)

// ErrConfigurationMissing reports that a mandatory identifier of a dependent
// source is not configured. It aborts Start.
var ErrConfigurationMissing = errors.New("configuration missing")

// SourceKind names one of the three telemetry sources.
type SourceKind string

const (
	SourcePosition   SourceKind = "gps"
	SourceCorrection SourceKind = "rtk"
	SourceOdometry   SourceKind = "odom"
)

// Source is a telemetry data holder updated independently of the mapper.
// Implementations must return quickly; absence of data is reported through
// Ready or an empty Sample, never by blocking.
type Source interface {
	Ready() bool
	Latest() Sample
}

// Sequenced is implemented by sources that count stored samples. It lets the
// mapper tell a fresh sample from one it already consumed.
type Sequenced interface {
	Updates() uint64
}

// Reading classifies a source on one tick.
type Reading int

const (
	// ReadingNotReady means the source is absent or has not initialized.
	ReadingNotReady Reading = iota
	// ReadingEmpty means the source is ready but holds no sample.
	ReadingEmpty
	// ReadingOK means the source is ready and holds a sample.
	ReadingOK
)

func (r Reading) String() string {
	switch r {
	case ReadingEmpty:
		return "empty"
	case ReadingOK:
		return "ok"
	default:
		return "not-ready"
	}
}

// Read classifies src and returns its latest sample when there is one.
// A nil src is not ready.
func Read(src Source) (Reading, Sample) {
	if src == nil || !src.Ready() {
		return ReadingNotReady, nil
	}
	s := src.Latest()
	if len(s) == 0 {
		return ReadingEmpty, nil
	}
	return ReadingOK, s
}
