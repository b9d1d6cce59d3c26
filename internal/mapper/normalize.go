package mapper

import (
	"github.com/autopeer-io/rfmapper/internal/mapper/core"
)

// normalizePosition copies the positioning fix and buffers BLE scans.
// Missing or malformed fields keep their previous value. Scans of a sample
// already consumed on an earlier tick are not buffered twice when the source
// implements core.Sequenced.
func normalizePosition(st *State, src core.Source) (core.Reading, int) {
	r, s := core.Read(src)
	st.PositionAvailable = r == core.ReadingOK
	if r != core.ReadingOK {
		return r, 0
	}

	setFloat(s, core.KeyGPSLat, &st.PositionLat)
	setFloat(s, core.KeyGPSLon, &st.PositionLon)
	setFloat(s, core.KeyGPSAlt, &st.PositionAlt)

	if seq, ok := src.(core.Sequenced); ok {
		n := seq.Updates()
		if n == st.positionSeq {
			return r, 0
		}
		st.positionSeq = n
	}
	return r, st.appendScans(parseScans(s[core.KeyBLEScan])...)
}

// normalizeCorrection copies the correction receiver fix.
func normalizeCorrection(st *State, src core.Source) core.Reading {
	r, s := core.Read(src)
	st.CorrectionAvailable = r == core.ReadingOK
	if r != core.ReadingOK {
		return r
	}

	setFloat(s, core.KeyRTKLat, &st.CorrectionLat)
	setFloat(s, core.KeyRTKLon, &st.CorrectionLon)
	return r
}

// normalizeOdometry copies the odometry pose. State has no availability
// flag for it; the reading is returned for logs and metrics.
func normalizeOdometry(st *State, src core.Source) core.Reading {
	r, s := core.Read(src)
	if r != core.ReadingOK {
		return r
	}

	setFloat(s, core.KeyOdomX, &st.OdomX)
	setFloat(s, core.KeyOdomY, &st.OdomY)
	return r
}

func setFloat(s core.Sample, key string, dst *float64) {
	if v, ok := s.Float(key); ok {
		*dst = v
	}
}

// parseScans accepts []core.Scan or a decoded JSON list of objects. Records
// without an address or with a non-numeric rssi are skipped.
func parseScans(v any) []core.Scan {
	switch list := v.(type) {
	case []core.Scan:
		out := make([]core.Scan, 0, len(list))
		for _, sc := range list {
			if sc.Address != "" {
				out = append(out, sc)
			}
		}
		return out
	case []map[string]any:
		out := make([]core.Scan, 0, len(list))
		for _, m := range list {
			if sc, ok := parseScan(m); ok {
				out = append(out, sc)
			}
		}
		return out
	case []any:
		out := make([]core.Scan, 0, len(list))
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if sc, ok := parseScan(m); ok {
				out = append(out, sc)
			}
		}
		return out
	default:
		return nil
	}
}

func parseScan(m map[string]any) (core.Scan, bool) {
	addr, _ := m["address"].(string)
	if addr == "" {
		return core.Scan{}, false
	}
	rssi, ok := core.ToFloat(m["rssi"])
	if !ok {
		return core.Scan{}, false
	}
	name, _ := m["name"].(string)
	return core.Scan{Address: addr, Name: name, RSSI: int(rssi)}, true
}
