package device

import (
	"fmt"
	"math"

	"github.com/nerrad567/openhab-ghome/internal/item"
)

// TranslateState builds the state snapshot of a single item.
//
// Raw fields are extracted according to the item type and then projected
// onto the traits ClassifyTraits reports for the item, so a field is only
// present when the device exposes the matching trait. online is always true.
// Failures are returned as *TranslationError carrying the item name.
func TranslateState(it item.Item) (State, error) {
	raw, err := extractState(it)
	if err != nil {
		return State{}, translationError(it.Name, err)
	}
	return project(raw, ClassifyTraits(it)), nil
}

// extractState gives the item type precedence over temperature tags, in the
// same order as ClassifyTraits.
func extractState(it item.Item) (State, error) {
	switch {
	case it.IsType(item.TypeSwitch):
		return switchState(it.State), nil
	case it.IsType(item.TypeDimmer):
		return dimmerState(it.State)
	case it.IsType(item.TypeColor):
		return colorState(it.State)
	case it.IsType(item.TypeRollershutter):
		return rollershutterState(it.State)
	case isTemperatureItem(it):
		ts, err := extractThermostat(it)
		if err != nil {
			return State{}, err
		}
		return State{
			ThermostatMode:                ts.mode,
			ThermostatTemperatureAmbient:  ts.ambient,
			ThermostatTemperatureSetpoint: ts.setpoint,
			ThermostatHumidityAmbient:     ts.humidity,
		}, nil
	default:
		// Scene and Outlet items of other types.
		return switchState(it.State), nil
	}
}

func switchState(state string) State {
	return State{On: ptr(state == item.StateOn)}
}

func dimmerState(state string) (State, error) {
	switch {
	case state == item.StateOn:
		return State{On: ptr(true), Brightness: ptr(100)}, nil
	case state == item.StateOff:
		return State{On: ptr(false), Brightness: ptr(0)}, nil
	case item.IsUninitialised(state):
		return State{}, nil
	}
	v, err := parsePercent(state)
	if err != nil {
		return State{}, err
	}
	return State{On: ptr(v != 0), Brightness: ptr(v)}, nil
}

func colorState(state string) (State, error) {
	if item.IsUninitialised(state) {
		return State{}, nil
	}
	c, err := parseHSV(state)
	if err != nil {
		return State{}, err
	}
	return State{
		On:         ptr(c.v != 0),
		Brightness: ptr(int(math.Round(c.v))),
		Color:      &Color{SpectrumRGB: c.spectrumRGB()},
	}, nil
}

func rollershutterState(state string) (State, error) {
	if item.IsUninitialised(state) {
		return State{}, nil
	}
	v, err := parsePercent(state)
	if err != nil {
		return State{}, err
	}
	return State{OpenPercent: ptr(100 - v)}, nil
}

func parsePercent(state string) (int, error) {
	f, err := item.ParseNumber(state)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	return int(math.Round(f)), nil
}

// project keeps only the fields belonging to traits.
func project(raw State, traits []Trait) State {
	out := State{Online: true}
	for _, t := range traits {
		switch t {
		case TraitOnOff:
			out.On = raw.On
		case TraitBrightness:
			out.Brightness = raw.Brightness
		case TraitColorSpectrum:
			out.Color = raw.Color
		case TraitOpenClose:
			out.OpenPercent = raw.OpenPercent
		case TraitTemperatureSetting:
			out.ThermostatMode = raw.ThermostatMode
			out.ThermostatTemperatureAmbient = raw.ThermostatTemperatureAmbient
			out.ThermostatTemperatureSetpoint = raw.ThermostatTemperatureSetpoint
			out.ThermostatHumidityAmbient = raw.ThermostatHumidityAmbient
		}
	}
	return out
}
