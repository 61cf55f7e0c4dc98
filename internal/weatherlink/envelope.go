package weatherlink

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"

	"github.com/i474232898/station-health/internal/health"
)

// Data structure types of the sensor entries the decoders understand.
const (
	StructureISSHealthArchive    = 11
	StructureNonISSHealthArchive = 13
	StructureConsoleHealth       = 15
)

// Envelope is the body returned by the historic and current endpoints.
// Sensor entries are kept raw and decoded one at a time. Other top-level
// fields are ignored.
type Envelope struct {
	Sensors []json.RawMessage `json:"sensors"`

	raw []byte
}

// Raw returns the body the envelope was parsed from.
func (e *Envelope) Raw() []byte {
	if e == nil {
		return nil
	}
	return e.raw
}

// ParseEnvelope parses a response body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	env.raw = body
	return &env, nil
}

// sensorEntry is one element of Envelope.Sensors. Only the structure type
// and data are interpreted; lsid is kept verbatim for logging.
type sensorEntry struct {
	LSID              json.RawMessage   `json:"lsid"`
	DataStructureType int               `json:"data_structure_type"`
	Data              []json.RawMessage `json:"data"`
}

// issHealth is the payload of an ISS/transmitter health archive entry.
type issHealth struct {
	Reception         *float64 `json:"reception"`
	RSSI              *float64 `json:"rssi"`
	SupercapVoltLast  *float64 `json:"supercap_volt_last"`
	SolarVoltLast     *float64 `json:"solar_volt_last"`
	GoodPacketsStreak *float64 `json:"good_packets_streak"`
	TxID              *float64 `json:"tx_id"`
	TransBattery      *float64 `json:"trans_battery"`
	RainfallClicks    *float64 `json:"rainfall_clicks"`
	SolarRadVoltLast  *float64 `json:"solar_rad_volt_last"`
	TransBatteryFlag  *float64 `json:"trans_battery_flag"`
	ErrorPackets      *float64 `json:"error_packets"`
	AFC               *float64 `json:"afc"`
	Resynchs          *float64 `json:"resynchs"`
	UVVoltLast        *float64 `json:"uv_volt_last"`
}

// consoleHealth is the payload of a WeatherLink Live / console health entry.
type consoleHealth struct {
	BatteryVoltage    *float64 `json:"battery_voltage"`
	InputVoltage      *float64 `json:"input_voltage"`
	RapidRecordsSent  *float64 `json:"rapid_records_sent"`
	FirmwareVersion   *float64 `json:"firmware_version"`
	BootloaderVersion *float64 `json:"bootloader_version"`
	RadioVersion      *float64 `json:"radio_version"`
	HealthVersion     *float64 `json:"health_version"`
	EspressIFVersion  *float64 `json:"espressif_version"`
	Uptime            *float64 `json:"uptime"`
	LinkUptime        *float64 `json:"link_uptime"`
	TouchpadWakeups   *float64 `json:"touchpad_wakeups"`
	LocalAPIQueries   *float64 `json:"local_api_queries"`
	RxBytes           *float64 `json:"rx_bytes"`
	TxBytes           *float64 `json:"tx_bytes"`
	WifiRSSI          *float64 `json:"wifi_rssi"`
}

func (v issHealth) record() (health.Record, error) {
	var c intConv
	rec := health.Record{
		SignalQuality:  c.int("reception", v.Reception),
		RSSI:           v.RSSI,
		SupercapVolt:   v.SupercapVoltLast,
		SolarVolt:      v.SolarVoltLast,
		PacketStreak:   c.int("good_packets_streak", v.GoodPacketsStreak),
		TxID:           c.int("tx_id", v.TxID),
		TxBattery:      v.TransBattery,
		RainfallClicks: c.int("rainfall_clicks", v.RainfallClicks),
		SolarRadVolt:   v.SolarRadVoltLast,
		TxBatteryFlag:  c.int("trans_battery_flag", v.TransBatteryFlag),
		ErrorPackets:   c.int("error_packets", v.ErrorPackets),
		AFC:            v.AFC,
		Resynchs:       c.int("resynchs", v.Resynchs),
		UVVolt:         v.UVVoltLast,
	}
	return rec, c.err
}

func (v consoleHealth) record() (health.Record, error) {
	var c intConv
	rec := health.Record{
		ConsoleBattery:    v.BatteryVoltage,
		ConsolePower:      v.InputVoltage,
		RapidRecords:      c.int("rapid_records_sent", v.RapidRecordsSent),
		FirmwareVersion:   v.FirmwareVersion,
		BootloaderVersion: v.BootloaderVersion,
		RadioVersion:      v.RadioVersion,
		HealthVersion:     v.HealthVersion,
		EspressIFVersion:  v.EspressIFVersion,
		Uptime:            v.Uptime,
		LinkUptime:        v.LinkUptime,
		TouchpadWakeups:   c.int("touchpad_wakeups", v.TouchpadWakeups),
		LocalAPIQueries:   c.int("local_api_queries", v.LocalAPIQueries),
		RxBytes:           c.int("rx_bytes", v.RxBytes),
		TxBytes:           c.int("tx_bytes", v.TxBytes),
		RSSI:              v.WifiRSSI,
	}
	return rec, c.err
}

// intConv rounds JSON numbers into integer columns and remembers the first
// value that does not fit in an int64.
type intConv struct {
	err error
}

func (c *intConv) int(field string, f *float64) *int64 {
	if f == nil {
		return nil
	}
	r := math.Round(*f)
	if r < math.MinInt64 || r >= math.MaxInt64 {
		if c.err == nil {
			c.err = fmt.Errorf("%s: %g out of integer range", field, *f)
		}
		return nil
	}
	return health.Int(int64(r))
}
