package core

import (
	"encoding/json"
	"math"
)

// Sample is the latest structured record of a telemetry source.
type Sample map[string]any

// Documented sample keys. Anything else in a Sample is ignored.
const (
	KeyGPSLat  = "gps_lat"
	KeyGPSLon  = "gps_lon"
	KeyGPSAlt  = "gps_alt"
	KeyBLEScan = "ble_scan"

	KeyRTKLat = "rtk_lat"
	KeyRTKLon = "rtk_lon"

	KeyOdomX = "odom_x"
	KeyOdomY = "odom_y"
)

// Clone returns a shallow copy of s. A nil Sample stays nil.
func (s Sample) Clone() Sample {
	if s == nil {
		return nil
	}
	out := make(Sample, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Float returns the numeric value stored under key. Non-numeric values,
// NaN and infinities report false.
func (s Sample) Float(key string) (float64, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// ToFloat converts a decoded JSON or Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
