package device

// DeviceType is the Google device type of a translated item.
type DeviceType string //nolint:revive // device.DeviceType is clearer than device.Type in calling code

// Device types.
const (
	DeviceTypeLight      DeviceType = "action.devices.types.LIGHT"
	DeviceTypeSwitch     DeviceType = "action.devices.types.SWITCH"
	DeviceTypeScene      DeviceType = "action.devices.types.SCENE"
	DeviceTypeOutlet     DeviceType = "action.devices.types.OUTLET"
	DeviceTypeThermostat DeviceType = "action.devices.types.THERMOSTAT"
	DeviceTypeBlinds     DeviceType = "action.devices.types.BLINDS"
)

// Trait is a Google device trait (a capability).
type Trait string

// Traits.
const (
	TraitOnOff              Trait = "action.devices.traits.OnOff"
	TraitBrightness         Trait = "action.devices.traits.Brightness"
	TraitColorSpectrum      Trait = "action.devices.traits.ColorSpectrum" //nolint:misspell // Google trait name
	TraitScene              Trait = "action.devices.traits.Scene"
	TraitTemperatureSetting Trait = "action.devices.traits.TemperatureSetting"
	TraitOpenClose          Trait = "action.devices.traits.OpenClose"
	TraitStartStop          Trait = "action.devices.traits.StartStop"
)

// Device is the descriptor returned in a SYNC response.
type Device struct {
	ID              string     `json:"id"`
	Type            DeviceType `json:"type"`
	Traits          []Trait    `json:"traits"`
	Name            Name       `json:"name"`
	DeviceInfo      DeviceInfo `json:"deviceInfo"`
	WillReportState bool       `json:"willReportState"`
	Attributes      Attributes `json:"attributes"`
}

// Name holds the display names of a device.
type Name struct {
	DefaultNames []string `json:"defaultNames"`
	Name         string   `json:"name"`
	Nicknames    []string `json:"nicknames"`
}

// DeviceInfo describes the device hardware.
type DeviceInfo struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	HWVersion    string `json:"hwVersion"`
	SWVersion    string `json:"swVersion"`
}

// Temperature units.
const (
	UnitCelsius    = "C"
	UnitFahrenheit = "F"
)

// Attributes holds the trait-specific static configuration of a device.
// Values are built once per device and never modified afterwards.
type Attributes struct {
	SceneReversible             bool     `json:"sceneReversible,omitempty"`
	OpenDirection               []string `json:"openDirection,omitempty"`
	ThermostatTemperatureUnit   string   `json:"thermostatTemperatureUnit,omitempty"`
	AvailableThermostatModes    string   `json:"availableThermostatModes,omitempty"`
	QueryOnlyTemperatureSetting bool     `json:"queryOnlyTemperatureSetting,omitempty"`
}

// State is a trait-keyed state snapshot. Nil fields are omitted.
//
// Examples:
//   - Light: {"online": true, "on": true, "brightness": 75}
//   - Thermostat: {"online": true, "thermostatMode": "heat", "thermostatTemperatureAmbient": 21.5, ...}
//   - Blinds: {"online": true, "openPercent": 40}
type State struct {
	Online                        bool     `json:"online"`
	On                            *bool    `json:"on,omitempty"`
	Brightness                    *int     `json:"brightness,omitempty"`
	Color                         *Color   `json:"color,omitempty"`
	OpenPercent                   *int     `json:"openPercent,omitempty"`
	ThermostatMode                *string  `json:"thermostatMode,omitempty"`
	ThermostatTemperatureAmbient  *float64 `json:"thermostatTemperatureAmbient,omitempty"`
	ThermostatTemperatureSetpoint *float64 `json:"thermostatTemperatureSetpoint,omitempty"`
	ThermostatHumidityAmbient     *float64 `json:"thermostatHumidityAmbient,omitempty"`
	Start                         *bool    `json:"start,omitempty"`
}

// Color is the colour part of a state.
type Color struct { //nolint:misspell // Google schema name
	SpectrumRGB int `json:"spectrumRGB"`
}

// Command names accepted by TranslateCommand.
const (
	CommandOnOff                         = "action.devices.commands.OnOff"
	CommandBrightnessAbsolute            = "action.devices.commands.BrightnessAbsolute"
	CommandChangeColor                   = "action.devices.commands.ChangeColor"
	CommandColorAbsolute                 = "action.devices.commands.ColorAbsolute"
	CommandActivateScene                 = "action.devices.commands.ActivateScene"
	CommandThermostatSetMode             = "action.devices.commands.ThermostatSetMode"
	CommandThermostatTemperatureSetpoint = "action.devices.commands.ThermostatTemperatureSetpoint"
	CommandOpenClose                     = "action.devices.commands.OpenClose"
	CommandStartStop                     = "action.devices.commands.StartStop"
)

// Execution is one command with its parameters, as found in an EXECUTE
// request.
type Execution struct {
	Command string `json:"command"`
	Params  Params `json:"params"`
}

// Params holds the parameters of every supported command. Only the fields
// belonging to Execution.Command are read.
type Params struct {
	On                            *bool    `json:"on,omitempty"`
	Brightness                    *int     `json:"brightness,omitempty"`
	Color                         *Color   `json:"color,omitempty"`
	Deactivate                    bool     `json:"deactivate,omitempty"`
	ThermostatMode                string   `json:"thermostatMode,omitempty"`
	ThermostatTemperatureSetpoint *float64 `json:"thermostatTemperatureSetpoint,omitempty"`
	OpenPercent                   *int     `json:"openPercent,omitempty"`
	Start                         *bool    `json:"start,omitempty"`
}

// Instruction is the item write derived from a command.
//
// When Unsupported is set no write must be performed and ItemName, Value and
// States are empty.
type Instruction struct {
	ItemName    string
	Value       string
	States      State
	Unsupported bool
}

func ptr[T any](v T) *T {
	return &v
}
