package health

import "time"

// USUnits is the unit-system tag stamped on every record (US customary).
const USUnits = 1

// Record is one merged station-health observation. Nil fields were not
// reported by the API this cycle.
type Record struct {
	DateTime int64 `json:"dateTime"` // epoch seconds
	USUnits  int64 `json:"usUnits"`
	Interval int64 `json:"interval"` // minutes

	// Transmitter / ISS health, from the historic endpoint.
	SupercapVolt   *float64 `json:"supercapVolt,omitempty"`
	SolarVolt      *float64 `json:"solarVolt,omitempty"`
	PacketStreak   *int64   `json:"packetStreak,omitempty"`
	TxID           *int64   `json:"txID,omitempty"`
	TxBattery      *float64 `json:"txBattery,omitempty"`
	RainfallClicks *int64   `json:"rainfallClicks,omitempty"`
	SolarRadVolt   *float64 `json:"solarRadVolt,omitempty"`
	TxBatteryFlag  *int64   `json:"txBatteryFlag,omitempty"`
	SignalQuality  *int64   `json:"signalQuality,omitempty"`
	ErrorPackets   *int64   `json:"errorPackets,omitempty"`
	AFC            *float64 `json:"afc,omitempty"`
	RSSI           *float64 `json:"rssi,omitempty"`
	Resynchs       *int64   `json:"resynchs,omitempty"`
	UVVolt         *float64 `json:"uvVolt,omitempty"`

	// Console health, from the current endpoint.
	ConsoleBattery    *float64 `json:"consoleBattery,omitempty"`
	RapidRecords      *int64   `json:"rapidRecords,omitempty"`
	FirmwareVersion   *float64 `json:"firmwareVersion,omitempty"`
	Uptime            *float64 `json:"uptime,omitempty"`
	TouchpadWakeups   *int64   `json:"touchpadWakeups,omitempty"`
	BootloaderVersion *float64 `json:"bootloaderVersion,omitempty"`
	LocalAPIQueries   *int64   `json:"localAPIQueries,omitempty"`
	RxBytes           *int64   `json:"rxBytes,omitempty"`
	HealthVersion     *float64 `json:"healthVersion,omitempty"`
	RadioVersion      *float64 `json:"radioVersion,omitempty"`
	EspressIFVersion  *float64 `json:"espressIFVersion,omitempty"`
	LinkUptime        *float64 `json:"linkUptime,omitempty"`
	ConsolePower      *float64 `json:"consolePower,omitempty"`
	TxBytes           *int64   `json:"txBytes,omitempty"`
}

// NewRecord returns a record carrying only the timestamp and unit system.
func NewRecord(now time.Time) Record {
	return Record{
		DateTime: now.Unix(),
		USUnits:  USUnits,
	}
}

// Time returns DateTime as a UTC time.
func (r Record) Time() time.Time {
	return time.Unix(r.DateTime, 0).UTC()
}

// Populated returns the number of health fields that carry a value.
func (r *Record) Populated() int {
	n := 0
	for _, col := range Schema[fixedColumns:] {
		if col.value(r) != nil {
			n++
		}
	}
	return n
}

// Values returns the driver values of r in Schema order. Absent fields are nil.
func (r *Record) Values() []any {
	out := make([]any, len(Schema))
	for i, col := range Schema {
		out[i] = col.value(r)
	}
	return out
}

// ScanTargets returns pointers to the fields of r in Schema order, suitable
// for sql.Rows.Scan. NULL columns leave the field nil.
func (r *Record) ScanTargets() []any {
	out := make([]any, len(Schema))
	for i, col := range Schema {
		out[i] = col.field(r)
	}
	return out
}

// Merge returns base with every non-nil health field of over copied on top.
// The timestamp, unit system and interval of base are kept.
func Merge(base, over Record) Record {
	merged := base
	for _, col := range Schema[fixedColumns:] {
		switch dst := col.field(&merged).(type) {
		case **float64:
			if src := *col.field(&over).(**float64); src != nil {
				*dst = src
			}
		case **int64:
			if src := *col.field(&over).(**int64); src != nil {
				*dst = src
			}
		}
	}
	return merged
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }
