package device

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/nerrad567/openhab-ghome/internal/item"
)

const maxSpectrumRGB = 0xFFFFFF

// ItemLookup fetches an item, including its group members, by name.
type ItemLookup func(name string) (*item.Item, error)

// TranslateCommand turns one execution against a device into an item write.
//
// Thermostat commands are redirected to the member item that holds the mode
// or target temperature, which is why lookup is needed; it is not called for
// other commands. Unknown commands yield an Instruction with Unsupported set
// and a nil error. Failures are returned as *TranslationError.
func TranslateCommand(deviceID string, exec Execution, lookup ItemLookup) (Instruction, error) {
	inst, err := translateCommand(deviceID, exec, lookup)
	if err != nil {
		return Instruction{}, translationError(deviceID, err)
	}
	return inst, nil
}

func translateCommand(deviceID string, exec Execution, lookup ItemLookup) (Instruction, error) {
	p := exec.Params

	switch exec.Command {
	case CommandOnOff:
		if p.On == nil {
			return Instruction{}, missingParam("on")
		}
		return Instruction{ItemName: deviceID, Value: onOff(*p.On), States: State{On: ptr(*p.On)}}, nil

	case CommandBrightnessAbsolute:
		if p.Brightness == nil {
			return Instruction{}, missingParam("brightness")
		}
		if *p.Brightness < 0 || *p.Brightness > 100 {
			return Instruction{}, fmt.Errorf("%w: brightness %d", ErrInvalidParam, *p.Brightness)
		}
		return Instruction{
			ItemName: deviceID,
			Value:    strconv.Itoa(*p.Brightness),
			States:   State{Brightness: ptr(*p.Brightness)},
		}, nil

	case CommandChangeColor, CommandColorAbsolute:
		if p.Color == nil {
			return Instruction{}, missingParam("color")
		}
		rgb := p.Color.SpectrumRGB
		if rgb < 0 || rgb > maxSpectrumRGB {
			return Instruction{}, fmt.Errorf("%w: spectrumRGB %d", ErrInvalidParam, rgb)
		}
		return Instruction{
			ItemName: deviceID,
			Value:    hsvFromSpectrumRGB(rgb).String(),
			States:   State{Color: &Color{SpectrumRGB: rgb}},
		}, nil

	case CommandActivateScene:
		return Instruction{ItemName: deviceID, Value: onOff(!p.Deactivate)}, nil

	case CommandThermostatSetMode:
		if p.ThermostatMode == "" {
			return Instruction{}, missingParam("thermostatMode")
		}
		roles, err := lookupRoles(deviceID, lookup)
		if err != nil {
			return Instruction{}, err
		}
		if roles.mode == nil {
			return Instruction{}, ErrModeItemMissing
		}
		// No state fragment: the mode is confirmed by the next QUERY.
		return Instruction{ItemName: roles.mode.Name, Value: p.ThermostatMode}, nil

	case CommandThermostatTemperatureSetpoint:
		if p.ThermostatTemperatureSetpoint == nil {
			return Instruction{}, missingParam("thermostatTemperatureSetpoint")
		}
		return setpointInstruction(deviceID, *p.ThermostatTemperatureSetpoint, lookup)

	case CommandOpenClose:
		if p.OpenPercent == nil {
			return Instruction{}, missingParam("openPercent")
		}
		pct := *p.OpenPercent
		if pct < 0 || pct > 100 {
			return Instruction{}, fmt.Errorf("%w: openPercent %d", ErrInvalidParam, pct)
		}
		return Instruction{
			ItemName: deviceID,
			Value:    openCloseValue(pct),
			States:   State{OpenPercent: ptr(pct)},
		}, nil

	case CommandStartStop:
		if p.Start == nil {
			return Instruction{}, missingParam("start")
		}
		value := "STOP"
		if *p.Start {
			value = "MOVE"
		}
		return Instruction{ItemName: deviceID, Value: value, States: State{Start: ptr(*p.Start)}}, nil

	default:
		return Instruction{Unsupported: true}, nil
	}
}

func setpointInstruction(deviceID string, celsius float64, lookup ItemLookup) (Instruction, error) {
	lead, err := lookupItem(deviceID, lookup)
	if err != nil {
		return Instruction{}, err
	}
	roles := resolveRoles(thermostatMembers(*lead))
	if roles.target == nil {
		return Instruction{}, ErrSetpointItemMissing
	}
	value := celsius
	if isFahrenheit(*lead) {
		value = celsiusToFahrenheit(celsius)
	}
	return Instruction{
		ItemName: roles.target.Name,
		Value:    formatComponent(value),
		States:   State{ThermostatTemperatureSetpoint: ptr(celsius)},
	}, nil
}

func lookupRoles(deviceID string, lookup ItemLookup) (thermostatRoles, error) {
	lead, err := lookupItem(deviceID, lookup)
	if err != nil {
		return thermostatRoles{}, err
	}
	return resolveRoles(thermostatMembers(*lead)), nil
}

func lookupItem(name string, lookup ItemLookup) (*item.Item, error) {
	if lookup == nil {
		return nil, errors.New("no item lookup configured")
	}
	it, err := lookup(name)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", name, err)
	}
	if it == nil {
		return nil, fmt.Errorf("looking up %s: item not returned", name)
	}
	return it, nil
}

// openCloseValue maps an open percentage to a rollershutter command:
// fully open is UP, fully closed is DOWN, anything else a position where
// 0 means open.
func openCloseValue(pct int) string {
	switch pct {
	case 0:
		return "DOWN"
	case 100:
		return "UP"
	default:
		return strconv.Itoa(100 - pct)
	}
}

func onOff(on bool) string {
	if on {
		return item.StateOn
	}
	return item.StateOff
}

func missingParam(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingParam, name)
}
