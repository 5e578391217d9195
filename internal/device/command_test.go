package device

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/openhab-ghome/internal/item"
)

// lookupFrom returns an ItemLookup serving the given items by name.
func lookupFrom(items ...item.Item) ItemLookup {
	return func(name string) (*item.Item, error) {
		for i := range items {
			if items[i].Name == name {
				return &items[i], nil
			}
		}
		return nil, errors.New("not found")
	}
}

func TestTranslateCommand(t *testing.T) {
	lookup := lookupFrom(thermostatGroup())

	tests := []struct {
		name     string
		deviceID string
		exec     Execution
		want     Instruction
	}{
		{
			name:     "on",
			deviceID: "Lamp",
			exec:     Execution{Command: CommandOnOff, Params: Params{On: ptr(true)}},
			want:     Instruction{ItemName: "Lamp", Value: "ON", States: State{On: ptr(true)}},
		},
		{
			name:     "off",
			deviceID: "Lamp",
			exec:     Execution{Command: CommandOnOff, Params: Params{On: ptr(false)}},
			want:     Instruction{ItemName: "Lamp", Value: "OFF", States: State{On: ptr(false)}},
		},
		{
			name:     "brightness",
			deviceID: "Dim",
			exec:     Execution{Command: CommandBrightnessAbsolute, Params: Params{Brightness: ptr(42)}},
			want:     Instruction{ItemName: "Dim", Value: "42", States: State{Brightness: ptr(42)}},
		},
		{
			name:     "color absolute red",
			deviceID: "Bulb",
			exec:     Execution{Command: CommandColorAbsolute, Params: Params{Color: &Color{SpectrumRGB: 16711680}}},
			want:     Instruction{ItemName: "Bulb", Value: "0,100,100", States: State{Color: &Color{SpectrumRGB: 16711680}}},
		},
		{
			name:     "change color blue",
			deviceID: "Bulb",
			exec:     Execution{Command: CommandChangeColor, Params: Params{Color: &Color{SpectrumRGB: 255}}},
			want:     Instruction{ItemName: "Bulb", Value: "240,100,100", States: State{Color: &Color{SpectrumRGB: 255}}},
		},
		{
			name:     "activate scene",
			deviceID: "Movie",
			exec:     Execution{Command: CommandActivateScene},
			want:     Instruction{ItemName: "Movie", Value: "ON"},
		},
		{
			name:     "deactivate scene",
			deviceID: "Movie",
			exec:     Execution{Command: CommandActivateScene, Params: Params{Deactivate: true}},
			want:     Instruction{ItemName: "Movie", Value: "OFF"},
		},
		{
			name:     "thermostat mode redirected",
			deviceID: "LivingThermostat",
			exec:     Execution{Command: CommandThermostatSetMode, Params: Params{ThermostatMode: "heat"}},
			want:     Instruction{ItemName: "LivingMode", Value: "heat"},
		},
		{
			name:     "thermostat setpoint redirected",
			deviceID: "LivingThermostat",
			exec:     Execution{Command: CommandThermostatTemperatureSetpoint, Params: Params{ThermostatTemperatureSetpoint: ptr(22.5)}},
			want:     Instruction{ItemName: "LivingTarget", Value: "22.5", States: State{ThermostatTemperatureSetpoint: ptr(22.5)}},
		},
		{
			name:     "open fully",
			deviceID: "Shutter",
			exec:     Execution{Command: CommandOpenClose, Params: Params{OpenPercent: ptr(100)}},
			want:     Instruction{ItemName: "Shutter", Value: "UP", States: State{OpenPercent: ptr(100)}},
		},
		{
			name:     "close fully",
			deviceID: "Shutter",
			exec:     Execution{Command: CommandOpenClose, Params: Params{OpenPercent: ptr(0)}},
			want:     Instruction{ItemName: "Shutter", Value: "DOWN", States: State{OpenPercent: ptr(0)}},
		},
		{
			name:     "open partially",
			deviceID: "Shutter",
			exec:     Execution{Command: CommandOpenClose, Params: Params{OpenPercent: ptr(70)}},
			want:     Instruction{ItemName: "Shutter", Value: "30", States: State{OpenPercent: ptr(70)}},
		},
		{
			name:     "start",
			deviceID: "Shutter",
			exec:     Execution{Command: CommandStartStop, Params: Params{Start: ptr(true)}},
			want:     Instruction{ItemName: "Shutter", Value: "MOVE", States: State{Start: ptr(true)}},
		},
		{
			name:     "stop",
			deviceID: "Shutter",
			exec:     Execution{Command: CommandStartStop, Params: Params{Start: ptr(false)}},
			want:     Instruction{ItemName: "Shutter", Value: "STOP", States: State{Start: ptr(false)}},
		},
		{
			name:     "unsupported",
			deviceID: "Lamp",
			exec:     Execution{Command: "action.devices.commands.Dock"},
			want:     Instruction{Unsupported: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TranslateCommand(tt.deviceID, tt.exec, lookup)
			if err != nil {
				t.Fatalf("TranslateCommand() error = %v", err)
			}
			if got.ItemName != tt.want.ItemName || got.Value != tt.want.Value || got.Unsupported != tt.want.Unsupported {
				t.Errorf("TranslateCommand() = %s=%q unsupported=%v, want %s=%q unsupported=%v",
					got.ItemName, got.Value, got.Unsupported, tt.want.ItemName, tt.want.Value, tt.want.Unsupported)
			}
			if !reflect.DeepEqual(got.States, tt.want.States) {
				t.Errorf("States = %s, want %s", describe(got.States), describe(tt.want.States))
			}
		})
	}
}

func TestTranslateCommand_Errors(t *testing.T) {
	noMode := thermostatGroup()
	noMode.Members = noMode.Members[:2]
	noTarget := thermostatGroup()
	noTarget.Name = "NoTarget"
	noTarget.Members = []item.Item{noTarget.Members[0]}
	lookup := lookupFrom(noMode, noTarget)

	tests := []struct {
		name     string
		deviceID string
		exec     Execution
		wantErr  error
	}{
		{"on missing", "Lamp", Execution{Command: CommandOnOff}, ErrMissingParam},
		{"brightness missing", "Dim", Execution{Command: CommandBrightnessAbsolute}, ErrMissingParam},
		{"brightness out of range", "Dim", Execution{Command: CommandBrightnessAbsolute, Params: Params{Brightness: ptr(140)}}, ErrInvalidParam},
		{"color missing", "Bulb", Execution{Command: CommandColorAbsolute}, ErrMissingParam},
		{"color out of range", "Bulb", Execution{Command: CommandColorAbsolute, Params: Params{Color: &Color{SpectrumRGB: 1 << 24}}}, ErrInvalidParam},
		{"mode missing", "LivingThermostat", Execution{Command: CommandThermostatSetMode}, ErrMissingParam},
		{"mode item missing", "LivingThermostat", Execution{Command: CommandThermostatSetMode, Params: Params{ThermostatMode: "cool"}}, ErrModeItemMissing},
		{"setpoint item missing", "NoTarget", Execution{Command: CommandThermostatTemperatureSetpoint, Params: Params{ThermostatTemperatureSetpoint: ptr(20.0)}}, ErrSetpointItemMissing},
		{"open percent missing", "Shutter", Execution{Command: CommandOpenClose}, ErrMissingParam},
		{"start missing", "Shutter", Execution{Command: CommandStartStop}, ErrMissingParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TranslateCommand(tt.deviceID, tt.exec, lookup)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TranslateCommand() error = %v, want %v", err, tt.wantErr)
			}
			var te *TranslationError
			if !errors.As(err, &te) || te.DeviceID != tt.deviceID {
				t.Errorf("error %v does not carry device id %q", err, tt.deviceID)
			}
		})
	}
}

func TestTranslateCommand_LookupFailure(t *testing.T) {
	exec := Execution{Command: CommandThermostatSetMode, Params: Params{ThermostatMode: "off"}}

	if _, err := TranslateCommand("Missing", exec, lookupFrom()); err == nil {
		t.Error("TranslateCommand() with failing lookup should error")
	}
	if _, err := TranslateCommand("Missing", exec, nil); err == nil {
		t.Error("TranslateCommand() with nil lookup should error")
	}
}

func TestTranslateCommand_SetpointFahrenheit(t *testing.T) {
	group := thermostatGroup("Fahrenheit")
	exec := Execution{Command: CommandThermostatTemperatureSetpoint, Params: Params{ThermostatTemperatureSetpoint: ptr(20.0)}}

	got, err := TranslateCommand(group.Name, exec, lookupFrom(group))
	if err != nil {
		t.Fatalf("TranslateCommand() error = %v", err)
	}
	if got.Value != "68" {
		t.Errorf("Value = %q, want 68", got.Value)
	}
	if *got.States.ThermostatTemperatureSetpoint != 20.0 {
		t.Errorf("setpoint state = %v, want 20", *got.States.ThermostatTemperatureSetpoint)
	}
}

func TestTranslateCommand_DuplicateRoleLastWins(t *testing.T) {
	group := thermostatGroup()
	group.Members = append(group.Members,
		item.Item{Name: "LivingModeOverride", Type: "String", State: "off", Tags: []string{"homekit:HeatingCoolingMode"}},
		item.Item{Name: "LivingTargetOverride", Type: "Number", State: "19", Tags: []string{"TargetTemperature"}},
	)
	lookup := lookupFrom(group)

	tests := []struct {
		name     string
		exec     Execution
		wantItem string
	}{
		{"mode", Execution{Command: CommandThermostatSetMode, Params: Params{ThermostatMode: "heat"}}, "LivingModeOverride"},
		{"setpoint", Execution{Command: CommandThermostatTemperatureSetpoint, Params: Params{ThermostatTemperatureSetpoint: ptr(20.0)}}, "LivingTargetOverride"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TranslateCommand(group.Name, tt.exec, lookup)
			if err != nil {
				t.Fatalf("TranslateCommand() error = %v", err)
			}
			if got.ItemName != tt.wantItem {
				t.Errorf("ItemName = %q, want %q", got.ItemName, tt.wantItem)
			}
		})
	}
}

func TestRollershutterRoundTrip(t *testing.T) {
	for pct := 1; pct < 100; pct++ {
		inst, err := TranslateCommand("Shutter", Execution{Command: CommandOpenClose, Params: Params{OpenPercent: ptr(pct)}}, nil)
		if err != nil {
			t.Fatalf("TranslateCommand(%d) error = %v", pct, err)
		}
		state, err := TranslateState(item.Item{Name: "Shutter", Type: "Rollershutter", State: inst.Value})
		if err != nil {
			t.Fatalf("TranslateState(%q) error = %v", inst.Value, err)
		}
		if *state.OpenPercent != pct {
			t.Errorf("openPercent %d -> %q -> %d", pct, inst.Value, *state.OpenPercent)
		}
	}
}
