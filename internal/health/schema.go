package health

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaMismatch is returned when a live table does not have exactly the
// columns of Schema, in order.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Kind is the storage type of a column.
type Kind int

const (
	KindInteger Kind = iota
	KindReal
)

func (k Kind) String() string {
	if k == KindReal {
		return "REAL"
	}
	return "INTEGER"
}

// Column describes one persisted field of a Record.
type Column struct {
	Name  string
	Kind  Kind
	Group string // unit group, see RegisterUnits
	Label string

	field func(r *Record) any
}

// fixedColumns is the number of leading columns that are always present
// (dateTime, usUnits, interval).
const fixedColumns = 3

// Schema is the ordered table layout. dateTime is the primary key.
var Schema = []Column{
	{Name: "dateTime", Kind: KindInteger, Group: GroupTime, Label: "Time", field: func(r *Record) any { return &r.DateTime }},
	{Name: "usUnits", Kind: KindInteger, Group: GroupCount, Label: "Unit System", field: func(r *Record) any { return &r.USUnits }},
	{Name: "interval", Kind: KindInteger, Group: GroupInterval, Label: "Interval", field: func(r *Record) any { return &r.Interval }},
	{Name: "supercapVolt", Kind: KindReal, Group: GroupVolt, Label: "Supercapacitor", field: func(r *Record) any { return &r.SupercapVolt }},
	{Name: "solarVolt", Kind: KindReal, Group: GroupVolt, Label: "Solar Cell", field: func(r *Record) any { return &r.SolarVolt }},
	{Name: "packetStreak", Kind: KindInteger, Group: GroupCount, Label: "Good Packets Streak", field: func(r *Record) any { return &r.PacketStreak }},
	{Name: "txID", Kind: KindInteger, Group: GroupCount, Label: "Transmitter ID", field: func(r *Record) any { return &r.TxID }},
	{Name: "txBattery", Kind: KindReal, Group: GroupVolt, Label: "Transmitter Battery", field: func(r *Record) any { return &r.TxBattery }},
	{Name: "rainfallClicks", Kind: KindInteger, Group: GroupCount, Label: "Bucket Tips", field: func(r *Record) any { return &r.RainfallClicks }},
	{Name: "solarRadVolt", Kind: KindReal, Group: GroupVolt, Label: "Solar Radiation Sensor Solar Cell", field: func(r *Record) any { return &r.SolarRadVolt }},
	{Name: "txBatteryFlag", Kind: KindInteger, Group: GroupCount, Label: "Transmitter Battery Status", field: func(r *Record) any { return &r.TxBatteryFlag }},
	{Name: "signalQuality", Kind: KindInteger, Group: GroupPercent, Label: "Signal Quality", field: func(r *Record) any { return &r.SignalQuality }},
	{Name: "errorPackets", Kind: KindInteger, Group: GroupCount, Label: "Error Packets", field: func(r *Record) any { return &r.ErrorPackets }},
	{Name: "afc", Kind: KindReal, Group: GroupCount, Label: "AFC", field: func(r *Record) any { return &r.AFC }},
	{Name: "rssi", Kind: KindReal, Group: GroupDecibels, Label: "Signal Strength", field: func(r *Record) any { return &r.RSSI }},
	{Name: "resynchs", Kind: KindInteger, Group: GroupCount, Label: "Re-synchronizations", field: func(r *Record) any { return &r.Resynchs }},
	{Name: "uvVolt", Kind: KindReal, Group: GroupVolt, Label: "UV Sensor Solar Cell", field: func(r *Record) any { return &r.UVVolt }},
	{Name: "consoleBattery", Kind: KindReal, Group: GroupMillivolts, Label: "Console Battery", field: func(r *Record) any { return &r.ConsoleBattery }},
	{Name: "rapidRecords", Kind: KindInteger, Group: GroupData, Label: "Rapid Records", field: func(r *Record) any { return &r.RapidRecords }},
	{Name: "firmwareVersion", Kind: KindReal, Group: GroupCount, Label: "Firmware Version", field: func(r *Record) any { return &r.FirmwareVersion }},
	{Name: "uptime", Kind: KindReal, Group: GroupDeltaTime, Label: "Uptime", field: func(r *Record) any { return &r.Uptime }},
	{Name: "touchpadWakeups", Kind: KindInteger, Group: GroupCount, Label: "Touchpad Wakeups", field: func(r *Record) any { return &r.TouchpadWakeups }},
	{Name: "bootloaderVersion", Kind: KindReal, Group: GroupCount, Label: "Bootloader Version", field: func(r *Record) any { return &r.BootloaderVersion }},
	{Name: "localAPIQueries", Kind: KindInteger, Group: GroupCount, Label: "Local API Queries", field: func(r *Record) any { return &r.LocalAPIQueries }},
	{Name: "rxBytes", Kind: KindInteger, Group: GroupData, Label: "Data Received", field: func(r *Record) any { return &r.RxBytes }},
	{Name: "healthVersion", Kind: KindReal, Group: GroupCount, Label: "Davis Health Version", field: func(r *Record) any { return &r.HealthVersion }},
	{Name: "radioVersion", Kind: KindReal, Group: GroupCount, Label: "Radio Version", field: func(r *Record) any { return &r.RadioVersion }},
	{Name: "espressIFVersion", Kind: KindReal, Group: GroupCount, Label: "EspressIF Version", field: func(r *Record) any { return &r.EspressIFVersion }},
	{Name: "linkUptime", Kind: KindReal, Group: GroupDeltaTime, Label: "Link Uptime", field: func(r *Record) any { return &r.LinkUptime }},
	{Name: "consolePower", Kind: KindReal, Group: GroupMillivolts, Label: "Console AC Power", field: func(r *Record) any { return &r.ConsolePower }},
	{Name: "txBytes", Kind: KindInteger, Group: GroupData, Label: "Data Transmitted", field: func(r *Record) any { return &r.TxBytes }},
}

// ColumnNames returns the Schema column names in order.
func ColumnNames() []string {
	names := make([]string, len(Schema))
	for i, col := range Schema {
		names[i] = col.Name
	}
	return names
}

// CheckSchema compares the live column list of a table against Schema.
func CheckSchema(live []string) error {
	want := ColumnNames()
	if len(live) != len(want) {
		return fmt.Errorf("%w: table has %d columns, want %d (%s)",
			ErrSchemaMismatch, len(live), len(want), strings.Join(live, ","))
	}
	for i := range want {
		if live[i] != want[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrSchemaMismatch, i, live[i], want[i])
		}
	}
	return nil
}

// value dereferences a column field into a driver value. Absent fields
// yield nil.
func (c Column) value(r *Record) any {
	switch p := c.field(r).(type) {
	case *int64:
		return *p
	case **int64:
		if *p == nil {
			return nil
		}
		return **p
	case **float64:
		if *p == nil {
			return nil
		}
		return **p
	}
	return nil
}
