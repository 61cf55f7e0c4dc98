package health

import "sync"

// Unit groups used by the schema columns.
const (
	GroupTime       = "group_time"
	GroupInterval   = "group_interval"
	GroupVolt       = "group_volt"
	GroupMillivolts = "group_millivolts"
	GroupDecibels   = "group_decibels"
	GroupPercent    = "group_percent"
	GroupDeltaTime  = "group_deltatime"
	GroupCount      = "group_count"
	GroupData       = "group_data"
)

// Unit describes how values of a unit group are rendered.
type Unit struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Label  string `json:"label"`
}

// UnitRegistry is the host-side unit system the health observations are
// registered into.
type UnitRegistry interface {
	RegisterGroup(group string, unit Unit)
	AssignObservation(observation, group string)
}

var builtinUnits = map[string]Unit{
	GroupTime:       {Name: "unix_epoch", Format: "%d", Label: ""},
	GroupInterval:   {Name: "minute", Format: "%d", Label: " minutes"},
	GroupVolt:       {Name: "volt", Format: "%.2f", Label: " V"},
	GroupMillivolts: {Name: "millivolts", Format: "%d", Label: " mV"},
	GroupDecibels:   {Name: "decibels", Format: "%.1f", Label: " dBm"},
	GroupPercent:    {Name: "percent", Format: "%.0f", Label: "%"},
	GroupDeltaTime:  {Name: "second", Format: "%.0f", Label: " s"},
	GroupCount:      {Name: "count", Format: "%d", Label: ""},
	GroupData:       {Name: "byte", Format: "%d", Label: " B"},
}

// RegisterUnits registers every unit group and column observation of Schema
// into reg. The host calls it once during start-up.
func RegisterUnits(reg UnitRegistry) {
	for group, unit := range builtinUnits {
		reg.RegisterGroup(group, unit)
	}
	for _, col := range Schema {
		reg.AssignObservation(col.Name, col.Group)
	}
}

// UnitTable is an in-process UnitRegistry.
type UnitTable struct {
	mu           sync.RWMutex
	groups       map[string]Unit
	observations map[string]string
}

// NewUnitTable creates an empty UnitTable.
func NewUnitTable() *UnitTable {
	return &UnitTable{
		groups:       make(map[string]Unit),
		observations: make(map[string]string),
	}
}

// RegisterGroup sets the unit of a group, replacing any earlier one.
func (t *UnitTable) RegisterGroup(group string, unit Unit) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.groups[group] = unit
}

// AssignObservation puts an observation into a unit group.
func (t *UnitTable) AssignObservation(observation, group string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observations[observation] = group
}

// UnitOf returns the unit registered for an observation.
func (t *UnitTable) UnitOf(observation string) (Unit, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	group, ok := t.observations[observation]
	if !ok {
		return Unit{}, false
	}
	unit, ok := t.groups[group]
	return unit, ok
}
