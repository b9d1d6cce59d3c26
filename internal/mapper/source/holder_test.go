package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
)

func TestHolderReadiness(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Unix(1700000000, 0))
	h := NewHolder(2*time.Second, fc)

	assert.False(t, h.Ready())
	assert.Nil(t, h.Latest())

	h.Update(core.Sample{core.KeyOdomX: 1.5})
	assert.True(t, h.Ready())
	assert.Equal(t, uint64(1), h.Updates())

	fc.Step(2 * time.Second)
	assert.True(t, h.Ready())

	fc.Step(time.Millisecond)
	assert.False(t, h.Ready(), "stale sample")

	h.Update(core.Sample{core.KeyOdomX: 2.0})
	assert.True(t, h.Ready())
}

func TestHolderWithoutMaxAgeNeverExpires(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Unix(1700000000, 0))
	h := NewHolder(0, fc)
	h.Update(core.Sample{core.KeyRTKLat: 1.0})

	fc.Step(24 * time.Hour)
	assert.True(t, h.Ready())
}

func TestHolderCopiesSamples(t *testing.T) {
	h := NewHolder(0, nil)

	in := core.Sample{core.KeyGPSLat: 40.7128}
	h.Update(in)
	in[core.KeyGPSLat] = 0.0

	out := h.Latest()
	assert.Equal(t, 40.7128, out[core.KeyGPSLat])

	out[core.KeyGPSLat] = 1.0
	assert.Equal(t, 40.7128, h.Latest()[core.KeyGPSLat])
}

func TestDecodeSample(t *testing.T) {
	s, err := decodeSample([]byte(`{"gps_lat": 40.7128, "gps_qua": 4}`))
	assert.NoError(t, err)
	assert.Equal(t, 40.7128, s[core.KeyGPSLat])

	for _, bad := range []string{`null`, `[1,2]`, `{"gps_lat":`, `"text"`} {
		_, err := decodeSample([]byte(bad))
		assert.Error(t, err, bad)
	}
}
