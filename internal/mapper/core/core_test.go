package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubSource struct {
	ready  bool
	sample Sample
}

func (s stubSource) Ready() bool    { return s.ready }
func (s stubSource) Latest() Sample { return s.sample }

func TestRead(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		want Reading
	}{
		{"nil source", nil, ReadingNotReady},
		{"not ready", stubSource{ready: false, sample: Sample{KeyGPSLat: 1.0}}, ReadingNotReady},
		{"ready without sample", stubSource{ready: true}, ReadingEmpty},
		{"ready with empty sample", stubSource{ready: true, sample: Sample{}}, ReadingEmpty},
		{"ready with sample", stubSource{ready: true, sample: Sample{KeyOdomX: 1.5}}, ReadingOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, s := Read(tt.src)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == ReadingOK, s != nil)
		})
	}
}

func TestSampleFloat(t *testing.T) {
	s := Sample{
		"f64":    40.7128,
		"int":    10,
		"number": json.Number("-74.006"),
		"string": "12.5",
		"bool":   true,
		"nan":    math.NaN(),
		"inf":    math.Inf(1),
		"nil":    nil,
	}

	for key, want := range map[string]float64{"f64": 40.7128, "int": 10, "number": -74.006} {
		got, ok := s.Float(key)
		assert.True(t, ok, key)
		assert.InDelta(t, want, got, 1e-9, key)
	}
	for _, key := range []string{"string", "bool", "nan", "inf", "nil", "absent"} {
		_, ok := s.Float(key)
		assert.False(t, ok, key)
	}
}

func TestSampleClone(t *testing.T) {
	s := Sample{KeyOdomX: 1.5}
	c := s.Clone()
	c[KeyOdomX] = 9.0
	assert.Equal(t, 1.5, s[KeyOdomX])
	assert.Nil(t, Sample(nil).Clone())
}

func TestPayloadOmitsEmptyScans(t *testing.T) {
	b, err := json.Marshal(&Payload{MachineID: UnknownMachineID})
	assert.NoError(t, err)
	assert.NotContains(t, string(b), KeyBLEScan)
	assert.Contains(t, string(b), `"machine_id":"Unknown"`)
	assert.Contains(t, string(b), `"gps_lat":0`)
}
