package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
)

func TestNormalizePosition(t *testing.T) {
	tests := []struct {
		name      string
		src       core.Source
		want      [3]float64
		available bool
		reading   core.Reading
	}{
		{
			name:      "absent source keeps previous fix",
			src:       nil,
			want:      [3]float64{1, 2, 3},
			available: false,
			reading:   core.ReadingNotReady,
		},
		{
			name:      "ready but empty keeps previous fix",
			src:       newFakeSource(true, core.Sample{}),
			want:      [3]float64{1, 2, 3},
			available: false,
			reading:   core.ReadingEmpty,
		},
		{
			name:      "full sample",
			src:       newFakeSource(true, core.Sample{core.KeyGPSLat: 40.7128, core.KeyGPSLon: -74.0060, core.KeyGPSAlt: 10.5, "gps_qua": 4}),
			want:      [3]float64{40.7128, -74.0060, 10.5},
			available: true,
			reading:   core.ReadingOK,
		},
		{
			name:      "malformed and missing fields keep their own previous value",
			src:       newFakeSource(true, core.Sample{core.KeyGPSLat: 5.0, core.KeyGPSLon: "west"}),
			want:      [3]float64{5, 2, 3},
			available: true,
			reading:   core.ReadingOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := State{PositionLat: 1, PositionLon: 2, PositionAlt: 3, PositionAvailable: true}
			r, _ := normalizePosition(&st, tt.src)
			assert.Equal(t, tt.reading, r)
			assert.Equal(t, tt.want, [3]float64{st.PositionLat, st.PositionLon, st.PositionAlt})
			assert.Equal(t, tt.available, st.PositionAvailable)
		})
	}
}

func TestNormalizeCorrectionAndOdometry(t *testing.T) {
	st := State{}

	normalizeCorrection(&st, newFakeSource(true, core.Sample{core.KeyRTKLat: 48.1, core.KeyRTKLon: 11.5}))
	assert.True(t, st.CorrectionAvailable)
	assert.Equal(t, 48.1, st.CorrectionLat)
	assert.Equal(t, 11.5, st.CorrectionLon)

	normalizeCorrection(&st, newFakeSource(false, nil))
	assert.False(t, st.CorrectionAvailable)
	assert.Equal(t, 48.1, st.CorrectionLat)

	r := normalizeOdometry(&st, newFakeSource(true, core.Sample{core.KeyOdomX: 1.5, core.KeyOdomY: 2.5}))
	assert.Equal(t, core.ReadingOK, r)
	assert.Equal(t, 1.5, st.OdomX)
	assert.Equal(t, 2.5, st.OdomY)

	r = normalizeOdometry(&st, newFakeSource(true, nil))
	assert.Equal(t, core.ReadingEmpty, r)
	assert.Equal(t, 1.5, st.OdomX)
}

func TestParseScans(t *testing.T) {
	decoded := []any{
		map[string]any{"address": "AA:BB", "name": "beacon", "rssi": -61.0},
		map[string]any{"address": "", "rssi": -50.0},
		map[string]any{"address": "CC:DD", "rssi": "strong"},
		"not an object",
		map[string]any{"address": "EE:FF", "rssi": -70},
	}

	got := parseScans(decoded)
	assert.Equal(t, []core.Scan{
		{Address: "AA:BB", Name: "beacon", RSSI: -61},
		{Address: "EE:FF", RSSI: -70},
	}, got)

	assert.Nil(t, parseScans("nope"))
	assert.Len(t, parseScans([]core.Scan{{Address: "x"}, {}}), 1)
}

func TestNormalizePositionBuffersScansOncePerSample(t *testing.T) {
	src := newFakeSource(true, core.Sample{
		core.KeyGPSLat:  1.0,
		core.KeyBLEScan: []any{map[string]any{"address": "AA:BB", "rssi": -61.0}},
	})
	st := State{}

	normalizePosition(&st, src)
	normalizePosition(&st, src)
	assert.Equal(t, uint64(1), st.ScanIndex, "same sample consumed twice")

	src.set(true, src.Latest())
	normalizePosition(&st, src)
	assert.Equal(t, uint64(2), st.ScanIndex)
}
