package item

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Item types as reported in the "type" field.
const (
	TypeSwitch        = "Switch"
	TypeDimmer        = "Dimmer"
	TypeColor         = "Color" //nolint:misspell // openHAB type name
	TypeRollershutter = "Rollershutter"
	TypeGroup         = "Group"
	TypeNumber        = "Number"
	TypeString        = "String"
	TypeContact       = "Contact"
)

// Semantic tags that drive device discovery.
const (
	TagLighting           = "Lighting"
	TagSwitchable         = "Switchable"
	TagOutlet             = "Outlet"
	TagScene              = "Scene"
	TagBlinds             = "Blinds"
	TagThermostat         = "Thermostat"
	TagCurrentTemperature = "CurrentTemperature"
	TagTargetTemperature  = "TargetTemperature"
	TagCurrentHumidity    = "CurrentHumidity"
	TagHeatingCoolingMode = "homekit:HeatingCoolingMode"
	TagFahrenheit         = "Fahrenheit"
)

// Uninitialised state markers.
const (
	StateNull  = "NULL"
	StateUndef = "UNDEF"
	StateOn    = "ON"
	StateOff   = "OFF"
)

// ErrNotNumeric is returned when a state cannot be read as a number.
var ErrNotNumeric = errors.New("item: state is not numeric")

// Item is a single openHAB item. Group items carry their members inline when
// fetched with ?recursive=true.
type Item struct {
	Name             string            `json:"name"`
	Label            string            `json:"label"`
	Type             string            `json:"type"`
	State            string            `json:"state"`
	Category         string            `json:"category,omitempty"`
	Link             string            `json:"link,omitempty"`
	Tags             []string          `json:"tags"`
	GroupNames       []string          `json:"groupNames"`
	GroupType        string            `json:"groupType,omitempty"`
	Members          []Item            `json:"members,omitempty"`
	StateDescription *StateDescription `json:"stateDescription,omitempty"`
}

// StateDescription describes the valid states of an item.
type StateDescription struct {
	Pattern  string        `json:"pattern,omitempty"`
	ReadOnly bool          `json:"readOnly"`
	Options  []StateOption `json:"options,omitempty"`
}

// StateOption is one enumerated state value.
type StateOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// BaseType returns the item type without its dimension suffix,
// e.g. "Number:Temperature" becomes "Number".
func (it Item) BaseType() string {
	base, _, _ := strings.Cut(it.Type, ":")
	return base
}

// EffectiveType returns the group base type for groups that declare one,
// otherwise the item's own base type.
func (it Item) EffectiveType() string {
	if it.IsGroup() && it.GroupType != "" {
		base, _, _ := strings.Cut(it.GroupType, ":")
		return base
	}
	return it.BaseType()
}

// IsGroup reports whether the item is a Group item.
func (it Item) IsGroup() bool {
	return strings.EqualFold(it.BaseType(), TypeGroup)
}

// IsType reports whether the item, or the group's base type, equals t
// ignoring case.
func (it Item) IsType(t string) bool {
	return strings.EqualFold(it.BaseType(), t) || strings.EqualFold(it.EffectiveType(), t)
}

// HasTag reports whether the item carries tag exactly.
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasTagFold reports whether the item carries tag, ignoring case.
func (it Item) HasTagFold(tag string) bool {
	for _, t := range it.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// InGroup reports whether any of the item's groupNames is in names.
func (it Item) InGroup(names map[string]struct{}) bool {
	for _, g := range it.GroupNames {
		if _, ok := names[g]; ok {
			return true
		}
	}
	return false
}

// IsUninitialised reports whether the state is one of openHAB's
// "no value" markers.
func (it Item) IsUninitialised() bool {
	return IsUninitialised(it.State)
}

// OptionValues returns the enumerated state values, or nil when the item
// declares none.
func (it Item) OptionValues() []string {
	if it.StateDescription == nil || len(it.StateDescription.Options) == 0 {
		return nil
	}
	values := make([]string, 0, len(it.StateDescription.Options))
	for _, o := range it.StateDescription.Options {
		values = append(values, o.Value)
	}
	return values
}

// IsUninitialised reports whether state is NULL, UNDEF or empty.
func IsUninitialised(state string) bool {
	s := strings.TrimSpace(state)
	return s == "" || s == StateNull || s == StateUndef
}

// ParseNumber reads the leading numeric token of a state. Quantity states
// such as "21.5 °C" are accepted; the unit is discarded.
func ParseNumber(state string) (float64, error) {
	fields := strings.Fields(state)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty state", ErrNotNumeric)
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, state)
	}
	return v, nil
}
