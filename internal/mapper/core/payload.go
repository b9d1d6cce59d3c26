package core

import (
	"context"
)

// UnknownMachineID is sent when no machine identifier is configured.
const UnknownMachineID = "Unknown"

// Scan is one BLE advertisement seen by the positioning receiver.
type Scan struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	RSSI    int    `json:"rssi"`
}

// Payload is the record submitted once per tick. Numeric fields always carry
// the last known value, zero until a source first reports.
type Payload struct {
	MachineID  string  `json:"machine_id"`
	PayloadIdx uint64  `json:"payload_idx"`
	Timestamp  int64   `json:"timestamp"`
	GPSLat     float64 `json:"gps_lat"`
	GPSLon     float64 `json:"gps_lon"`
	GPSAlt     float64 `json:"gps_alt"`
	RTKLat     float64 `json:"rtk_lat"`
	RTKLon     float64 `json:"rtk_lon"`
	OdomX      float64 `json:"odom_x"`
	OdomY      float64 `json:"odom_y"`
	GPSOn      bool    `json:"gps_on"`
	RTKOn      bool    `json:"rtk_on"`
	BLEScan    []Scan  `json:"ble_scan,omitempty"`
}

// Submitter transmits payloads. A failed submission is reported through the
// returned error.
type Submitter interface {
	Submit(ctx context.Context, p *Payload) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, p *Payload) error

func (f SubmitterFunc) Submit(ctx context.Context, p *Payload) error {
	return f(ctx, p)
}
