package device

import (
	"fmt"
	"math"

	"github.com/nerrad567/openhab-ghome/internal/item"
)

// thermostatRoles holds the members of a thermostat resolved by tag. A nil
// field means no member carries that role. When several members carry the
// same role the last one wins.
type thermostatRoles struct {
	current  *item.Item
	target   *item.Item
	mode     *item.Item
	humidity *item.Item
}

func resolveRoles(members []item.Item) thermostatRoles {
	var r thermostatRoles
	for i := range members {
		m := &members[i]
		for _, tag := range m.Tags {
			switch tag {
			case item.TagCurrentTemperature:
				r.current = m
			case item.TagTargetTemperature:
				r.target = m
			case item.TagHeatingCoolingMode:
				r.mode = m
			case item.TagCurrentHumidity:
				r.humidity = m
			}
		}
	}
	return r
}

// isComposite reports whether the item is a thermostat whose readings come
// from its group members rather than from itself.
func isComposite(it item.Item) bool {
	return it.HasTagFold(item.TagThermostat)
}

// thermostatMembers returns the items roles are resolved against.
func thermostatMembers(it item.Item) []item.Item {
	if isComposite(it) {
		return it.Members
	}
	return []item.Item{it}
}

type readingStatus int

const (
	readingAbsent readingStatus = iota
	readingValid
	readingInvalid
)

// reading is the outcome of reading one numeric role.
type reading struct {
	status readingStatus
	value  float64
	err    error
}

// readNumber reads a role's state. A missing member or a NULL/UNDEF state is
// absent; anything else that is not a number is invalid.
func readNumber(m *item.Item) reading {
	if m == nil || m.IsUninitialised() {
		return reading{status: readingAbsent}
	}
	v, err := item.ParseNumber(m.State)
	if err != nil {
		return reading{status: readingInvalid, err: fmt.Errorf("%w: %s: %w", ErrMalformedState, m.Name, err)}
	}
	return reading{status: readingValid, value: v}
}

// readTemperature reads a temperature role in Celsius.
func readTemperature(m *item.Item, fahrenheit bool) reading {
	r := readNumber(m)
	if r.status == readingValid && fahrenheit {
		r.value = fahrenheitToCelsius(r.value)
	}
	return r
}

// thermostatState is the temperature part of a state snapshot.
type thermostatState struct {
	mode     *string
	ambient  *float64
	setpoint *float64
	humidity *float64
}

// extractThermostat reads the temperature fields of a thermostat group or a
// standalone temperature sensor. Without a current temperature reading the
// result is empty.
func extractThermostat(it item.Item) (thermostatState, error) {
	composite := isComposite(it)
	roles := resolveRoles(thermostatMembers(it))
	fahrenheit := isFahrenheit(it)

	current := readTemperature(roles.current, fahrenheit)
	switch current.status {
	case readingAbsent:
		return thermostatState{}, nil
	case readingInvalid:
		return thermostatState{}, current.err
	}

	ts := thermostatState{
		mode:     ptr(thermostatMode(roles.mode)),
		ambient:  ptr(current.value),
		setpoint: ptr(current.value),
	}
	if !composite {
		return ts, nil
	}

	target := readTemperature(roles.target, fahrenheit)
	switch target.status {
	case readingValid:
		ts.setpoint = ptr(target.value)
	case readingInvalid:
		return thermostatState{}, target.err
	}

	humidity := readNumber(roles.humidity)
	switch humidity.status {
	case readingValid:
		ts.humidity = ptr(humidity.value)
	case readingInvalid:
		return thermostatState{}, humidity.err
	}
	return ts, nil
}

func thermostatMode(m *item.Item) string {
	if m == nil || m.IsUninitialised() {
		return defaultMode
	}
	return m.State
}

func fahrenheitToCelsius(f float64) float64 {
	return round2((f - 32) * 5 / 9)
}

func celsiusToFahrenheit(c float64) float64 {
	return round2(c*9/5 + 32)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
