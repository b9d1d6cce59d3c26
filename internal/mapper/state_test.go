package mapper

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
)

func scans(prefix string, n int) []core.Scan {
	out := make([]core.Scan, n)
	for i := range out {
		out[i] = core.Scan{Address: fmt.Sprintf("%s-%d", prefix, i), RSSI: -60}
	}
	return out
}

func assertCursorInvariant(t *testing.T, st *State) {
	t.Helper()
	assert.LessOrEqual(t, st.ScanLastSentIndex, st.ScanIndex)
	assert.LessOrEqual(t, st.ScanIndex, uint64(len(st.ScanResults)))
}

func TestDrainScans(t *testing.T) {
	var st State
	assert.Nil(t, st.drainScans())

	st.appendScans(scans("a", 3)...)
	assert.Equal(t, uint64(3), st.ScanIndex)

	got := st.drainScans()
	require.Len(t, got, 3)
	assert.Equal(t, "a-0", got[0].Address)
	assert.Equal(t, uint64(3), st.ScanLastSentIndex)
	assert.Nil(t, st.drainScans(), "nothing new to send")

	st.appendScans(scans("b", 2)...)
	got = st.drainScans()
	require.Len(t, got, 2)
	assert.Equal(t, "b-0", got[0].Address)
	assertCursorInvariant(t, &st)
}

func TestAppendScansCompactsSentPrefix(t *testing.T) {
	var st State
	st.appendScans(scans("a", MaxScanBuffer)...)
	st.drainScans()

	dropped := st.appendScans(scans("b", 10)...)
	assert.Zero(t, dropped)
	assert.Len(t, st.ScanResults, 10)
	assert.Equal(t, uint64(0), st.ScanLastSentIndex)
	assert.Equal(t, uint64(10), st.ScanIndex)
	assertCursorInvariant(t, &st)

	got := st.drainScans()
	require.Len(t, got, 10)
	assert.Equal(t, "b-0", got[0].Address)
}

func TestAppendScansDropsOldestUnsentWhenFull(t *testing.T) {
	var st State
	st.appendScans(scans("a", MaxScanBuffer)...)

	dropped := st.appendScans(scans("b", 5)...)
	assert.Equal(t, 5, dropped)
	assert.Len(t, st.ScanResults, MaxScanBuffer)
	assertCursorInvariant(t, &st)

	got := st.drainScans()
	require.Len(t, got, MaxScanBuffer)
	assert.Equal(t, "a-5", got[0].Address)
	assert.Equal(t, "b-4", got[len(got)-1].Address)
}
