package paths

// Topic segments used by rfmapper. Full topics are built as {root}/{segment}/{machineID}.

// Upstream: robot -> ingestion.
const (
	// Telemetry carries one aggregated payload per tick.
	// Pattern: {root}/telemetry/{machineID}
	Telemetry = "telemetry"

	// Online carries the retained online/offline flag of a mapper (last will).
	// Pattern: {root}/online/{machineID}
	Online = "online"
)

// Local sensor bridges -> mapper.
const (
	// SensorsGPS carries positioning samples.
	SensorsGPS = "sensors/gps"

	// SensorsRTK carries correction receiver samples.
	SensorsRTK = "sensors/rtk"
)

// Sensor returns the segment for a sensor kind, e.g. "gps" -> "sensors/gps".
func Sensor(kind string) string {
	return "sensors/" + kind
}
