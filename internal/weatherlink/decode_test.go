package weatherlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/i474232898/station-health/internal/health"
)

const historicBody = `{
  "station_id": 123,
  "sensors": [
    {"lsid": 1, "sensor_type": 23, "data_structure_type": 11, "data": []},
    {"lsid": 2, "sensor_type": 504, "data_structure_type": 15, "data": [{"battery_voltage": 4012}]},
    {"lsid": 3, "sensor_type": 37, "data_structure_type": 11, "data": [{
      "reception": 97, "rssi": -62, "supercap_volt_last": 3.18, "solar_volt_last": 4.01,
      "good_packets_streak": 812, "tx_id": 1, "trans_battery": 2.85, "rainfall_clicks": 3,
      "solar_rad_volt_last": null, "trans_battery_flag": 0, "error_packets": 4,
      "afc": -3, "resynchs": 0, "uv_volt_last": 0.25
    }]}
  ],
  "generated_at": 1000
}`

const currentBody = `{
  "station_id": 123,
  "sensors": [
    {"lsid": 2, "sensor_type": 504, "data_structure_type": 15, "data": [{
      "battery_voltage": 4012, "input_voltage": 4650, "rapid_records_sent": 12,
      "firmware_version": 1571596448, "bootloader_version": 1545069394,
      "radio_version": 2, "health_version": 1, "espressif_version": 1573078600,
      "uptime": 86400, "link_uptime": 3600, "touchpad_wakeups": 5,
      "local_api_queries": 9, "rx_bytes": 1234, "tx_bytes": 5678, "wifi_rssi": -48
    }]},
    {"lsid": 3, "sensor_type": 37, "data_structure_type": 11, "data": [{"rssi": -62}]}
  ],
  "generated_at": 1000
}`

func parse(t *testing.T, body string) *Envelope {
	t.Helper()
	env, err := ParseEnvelope([]byte(body))
	require.NoError(t, err)
	return env
}

func TestHistoricExtractsISSFields(t *testing.T) {
	d := NewDecoder(zap.NewNop())

	rec := d.Historic(parse(t, historicBody))

	require.NotNil(t, rec.SignalQuality)
	assert.Equal(t, int64(97), *rec.SignalQuality)
	assert.Equal(t, -62.0, *rec.RSSI)
	assert.Equal(t, 3.18, *rec.SupercapVolt)
	assert.Equal(t, 4.01, *rec.SolarVolt)
	assert.Equal(t, int64(812), *rec.PacketStreak)
	assert.Equal(t, int64(1), *rec.TxID)
	assert.Equal(t, 2.85, *rec.TxBattery)
	assert.Equal(t, int64(3), *rec.RainfallClicks)
	assert.Nil(t, rec.SolarRadVolt)
	assert.Equal(t, int64(0), *rec.TxBatteryFlag)
	assert.Equal(t, int64(4), *rec.ErrorPackets)
	assert.Equal(t, -3.0, *rec.AFC)
	assert.Equal(t, int64(0), *rec.Resynchs)
	assert.Equal(t, 0.25, *rec.UVVolt)

	// console fields come from the current endpoint only
	assert.Nil(t, rec.ConsoleBattery)
	assert.Nil(t, rec.Uptime)
	assert.Equal(t, 13, rec.Populated())
}

func TestCurrentExtractsConsoleFields(t *testing.T) {
	d := NewDecoder(zap.NewNop())

	rec := d.Current(parse(t, currentBody))

	assert.Equal(t, 4012.0, *rec.ConsoleBattery)
	assert.Equal(t, 4650.0, *rec.ConsolePower)
	assert.Equal(t, int64(12), *rec.RapidRecords)
	assert.Equal(t, 1571596448.0, *rec.FirmwareVersion)
	assert.Equal(t, 1545069394.0, *rec.BootloaderVersion)
	assert.Equal(t, 2.0, *rec.RadioVersion)
	assert.Equal(t, 1.0, *rec.HealthVersion)
	assert.Equal(t, 1573078600.0, *rec.EspressIFVersion)
	assert.Equal(t, 86400.0, *rec.Uptime)
	assert.Equal(t, 3600.0, *rec.LinkUptime)
	assert.Equal(t, int64(5), *rec.TouchpadWakeups)
	assert.Equal(t, int64(9), *rec.LocalAPIQueries)
	assert.Equal(t, int64(1234), *rec.RxBytes)
	assert.Equal(t, int64(5678), *rec.TxBytes)
	assert.Equal(t, -48.0, *rec.RSSI)

	assert.Nil(t, rec.SupercapVolt)
	assert.Nil(t, rec.SignalQuality)
}

func TestNoMatchingEntriesYieldsEmptyRecord(t *testing.T) {
	d := NewDecoder(zap.NewNop())
	env := parse(t, `{"sensors": [{"sensor_type": 1, "data_structure_type": 4, "data": [{"rssi": -1}]}]}`)

	assert.Equal(t, health.Record{}, d.Historic(env))
	assert.Equal(t, health.Record{}, d.Current(env))
}

func TestNilEnvelopeYieldsEmptyRecord(t *testing.T) {
	d := NewDecoder(zap.NewNop())

	assert.Equal(t, health.Record{}, d.Historic(nil))
	assert.Equal(t, health.Record{}, d.Current(nil))
}

func TestMissingSensorsIsLoggedWithPayload(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDecoder(zap.New(core))
	var failures []string
	d.OnError = func(endpoint string) { failures = append(failures, endpoint) }

	env := parse(t, `{"code": 401, "message": "Invalid signature"}`)
	rec := d.Historic(env)

	assert.Equal(t, health.Record{}, rec)
	assert.Equal(t, []string{"historic"}, failures)

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["payload"], "Invalid signature")
}

func TestMalformedEntryKeepsPartialRecord(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDecoder(zap.New(core))

	env := parse(t, `{"sensors": [
		{"data_structure_type": 11, "data": [{"rssi": -70, "tx_id": 2}]},
		{"data_structure_type": "eleven", "data": [{"rssi": -20}]},
		{"data_structure_type": 13, "data": [{"rssi": -10}]}
	]}`)

	rec := d.Historic(env)

	require.NotNil(t, rec.RSSI)
	assert.Equal(t, -70.0, *rec.RSSI)
	assert.Equal(t, int64(2), *rec.TxID)
	assert.Equal(t, 1, logs.FilterMessage("malformed sensor entry").Len())
}

func TestMalformedDataKeepsPartialRecord(t *testing.T) {
	d := NewDecoder(zap.NewNop())

	env := parse(t, `{"sensors": [
		{"data_structure_type": 15, "data": [{"uptime": 10}]},
		{"data_structure_type": 15, "data": [{"uptime": "ten"}]}
	]}`)

	rec := d.Current(env)

	require.NotNil(t, rec.Uptime)
	assert.Equal(t, 10.0, *rec.Uptime)
}

func TestLastMatchingEntryWins(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDecoder(zap.New(core))

	env := parse(t, `{"sensors": [
		{"data_structure_type": 11, "data": [{"rssi": -70, "tx_id": 1, "afc": 2}]},
		{"data_structure_type": 13, "data": [{"rssi": -40, "tx_id": 5}]}
	]}`)

	rec := d.Historic(env)

	assert.Equal(t, -40.0, *rec.RSSI)
	assert.Equal(t, int64(5), *rec.TxID)
	// the winning entry replaces the whole field set
	assert.Nil(t, rec.AFC)
	assert.Equal(t, 1, logs.FilterMessage("several sensor entries matched; using the last one").Len())
}

func TestIntegerFieldsAreRounded(t *testing.T) {
	d := NewDecoder(zap.NewNop())
	env := parse(t, `{"sensors": [{"data_structure_type": 11, "data": [{"reception": 96.6}]}]}`)

	rec := d.Historic(env)

	assert.Equal(t, int64(97), *rec.SignalQuality)
}

func TestUnusedFieldsOfAnyTypeAreIgnored(t *testing.T) {
	d := NewDecoder(zap.NewNop())
	env := parse(t, `{"station_id": "123", "generated_at": "now", "sensors": [
		{"lsid": "abc", "sensor_type": {"id": 4}, "data_structure_type": 4, "data": [{"temp": 1}]},
		{"lsid": 3, "sensor_type": "console", "data_structure_type": 15, "data": [{"battery_voltage": 4012}]}
	]}`)

	rec := d.Current(env)

	require.NotNil(t, rec.ConsoleBattery)
	assert.Equal(t, 4012.0, *rec.ConsoleBattery)
}

func TestNullDataDoesNotEraseEarlierMatch(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDecoder(zap.New(core))
	var failures []string
	d.OnError = func(endpoint string) { failures = append(failures, endpoint) }

	env := parse(t, `{"sensors": [
		{"data_structure_type": 11, "data": [{"rssi": -70, "tx_id": 2}]},
		{"data_structure_type": 13, "data": [null]}
	]}`)

	rec := d.Historic(env)

	require.NotNil(t, rec.RSSI)
	assert.Equal(t, -70.0, *rec.RSSI)
	assert.Equal(t, int64(2), *rec.TxID)
	assert.Empty(t, failures)
	assert.Equal(t, 1, logs.FilterMessage("sensor entry without data; skipping").Len())
	assert.Zero(t, logs.FilterMessage("several sensor entries matched; using the last one").Len())
}

func TestNonObjectDataIsMalformed(t *testing.T) {
	d := NewDecoder(zap.NewNop())
	var failures []string
	d.OnError = func(endpoint string) { failures = append(failures, endpoint) }

	env := parse(t, `{"sensors": [
		{"data_structure_type": 15, "data": [{"uptime": 10}]},
		{"data_structure_type": 15, "data": [42]}
	]}`)

	rec := d.Current(env)

	require.NotNil(t, rec.Uptime)
	assert.Equal(t, 10.0, *rec.Uptime)
	assert.Equal(t, []string{"current"}, failures)
}

func TestIntegerOverflowIsMalformed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewDecoder(zap.New(core))

	env := parse(t, `{"sensors": [
		{"data_structure_type": 15, "data": [{"rx_bytes": 1234, "uptime": 10}]},
		{"data_structure_type": 15, "data": [{"rx_bytes": 1e20, "uptime": 20}]}
	]}`)

	rec := d.Current(env)

	// the overflowing entry is rejected as a whole
	require.NotNil(t, rec.RxBytes)
	assert.Equal(t, int64(1234), *rec.RxBytes)
	assert.Equal(t, 10.0, *rec.Uptime)

	entries := logs.FilterMessage("malformed sensor data").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "rx_bytes")
}

func TestLargeIntegersWithinRange(t *testing.T) {
	d := NewDecoder(zap.NewNop())
	env := parse(t, `{"sensors": [{"data_structure_type": 15, "data": [{"tx_bytes": 4294967296, "touchpad_wakeups": -2.4}]}]}`)

	rec := d.Current(env)

	assert.Equal(t, int64(4294967296), *rec.TxBytes)
	assert.Equal(t, int64(-2), *rec.TouchpadWakeups)
}
